package devenv

// UcrTestConfig is read from dev/.state/ucr_config.json5 by live tests.
type UcrTestConfig struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
