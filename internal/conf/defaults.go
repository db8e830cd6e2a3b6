// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaultConfig sets default values for every key.
func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("logging.default_level", "info")
	v.SetDefault("logging.timezone", "Local")
	v.SetDefault("logging.console.enabled", true)
	v.SetDefault("logging.console.level", "info")
	v.SetDefault("logging.file_output.enabled", false)
	v.SetDefault("logging.file_output.path", "logs/birdeye.log")
	v.SetDefault("logging.file_output.level", "debug")

	v.SetDefault("classifier.baseurl", "https://dashscope.aliyuncs.com/compatible-mode/v1")
	v.SetDefault("classifier.model", "qwen-vl-max")
	v.SetDefault("classifier.temperature", 0.3)
	v.SetDefault("classifier.maxtokens", 0)
	v.SetDefault("classifier.timeout", 30*time.Second)

	v.SetDefault("geocode.enabled", true)
	v.SetDefault("geocode.endpoint", "https://nominatim.openstreetmap.org/reverse")
	v.SetDefault("geocode.language", "zh-CN")
	v.SetDefault("geocode.zoom", 14)
	v.SetDefault("geocode.timeout", 10*time.Second)
	v.SetDefault("geocode.ratelimit", 1.0)
	v.SetDefault("geocode.useragent", "BirdIdentifier/1.0")

	v.SetDefault("transcode.maxdimension", 1024)
	v.SetDefault("transcode.quality", 85)

	v.SetDefault("batch.maxphotos", 10)
	v.SetDefault("batch.workers", 1)

	v.SetDefault("records.backend", BackendREST)
	v.SetDefault("records.table", "records")
	v.SetDefault("records.timeout", 15*time.Second)
	v.SetDefault("records.listlimit", 100)
	v.SetDefault("records.sqlitepath", "birdeye.db")
	v.SetDefault("records.mysql.port", 3306)

	v.SetDefault("leaderboard.fetchlimit", 1000)
	v.SetDefault("leaderboard.cachettl", 30*time.Second)

	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.maxuploadmb", 200)
	v.SetDefault("server.sessionsecret", "")
	v.SetDefault("server.sessionsecretfile", "")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.environment", "production")
}
