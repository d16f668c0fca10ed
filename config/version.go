package config

var (
	Version    string = "dev"
	CommitHash string = "n/a"
)

// IsProduction 判断是否为生产环境
func IsProduction() bool {
	return Version != "dev"
}

// IsDevelopment 判断是否为开发环境
func IsDevelopment() bool {
	return Version == "dev"
}
