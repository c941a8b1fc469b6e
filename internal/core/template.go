package core

// DefaultDefinition is the built-in pipeline template, used when no
// definition file is configured. It mirrors a conventional build:
// checkout, compile, tests in parallel, best-effort lint, image build,
// gated registry push, gated staging deploy with readiness check, and
// a final archive.
//
// Deploy gating: staging deploys require DEPLOY_ENV=staging and a
// non-pull-request build. Production deploys additionally require the
// explicit DEPLOY_APPROVED flag.
func DefaultDefinition() *Definition {
	skipTestsOff := &Condition{All: []Check{{Param: "SKIP_TESTS", Equals: "false"}}}

	return &Definition{
		Stages: []StageDef{
			{Name: "Checkout", Action: ActionCheckout},
			{Name: "Build", Action: ActionBuild},
			{
				Name: "Tests",
				When: skipTestsOff,
				Parallel: []StageDef{
					{Name: "Unit Tests", Action: ActionTestUnit},
					{Name: "Integration Tests", Action: ActionTestIntegration},
				},
			},
			{Name: "Lint", Action: ActionLint, BestEffort: true},
			{Name: "Build Image", Action: ActionBuildImage},
			{
				Name:   "Push Image",
				Action: ActionPushImage,
				When:   &Condition{All: []Check{{Flag: "PUSH_TO_REGISTRY"}}},
			},
			{
				Name:   "Deploy Staging",
				Action: ActionDeploy,
				When: &Condition{All: []Check{
					{Param: "DEPLOY_ENV", Equals: "staging"},
					{NotPullRequest: true},
				}},
			},
			{
				Name:   "Deploy Production",
				Action: ActionDeploy,
				When: &Condition{All: []Check{
					{Param: "DEPLOY_ENV", Equals: "production"},
					{Flag: "DEPLOY_APPROVED"},
					{NotPullRequest: true},
				}},
			},
			{Name: "Archive", Action: ActionArchive},
		},
	}
}
