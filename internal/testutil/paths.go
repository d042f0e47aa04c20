package testutil

// Temporary file names used by test helpers.
const (
	// TestStoreName is the file name SetupTestStore creates.
	TestStoreName = "test.store"

	// TestConfigName is the file name used for generated config files.
	TestConfigName = "pagestore.yaml"
)
