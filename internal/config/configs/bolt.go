package configs

// Bolt holds configuration for the embedded BoltDB registry driver, used when
// STORAGE_DRIVER is set to "bolt". Path points at the single database file;
// it is created on first start.
type Bolt struct {
	Path string `env:"PATH" envDefault:"soulboard.db"`
}
