// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "PipeWatch")
	viper.SetDefault("main.log.enabled", false)
	viper.SetDefault("main.log.path", "logs/pipewatch.log")
	viper.SetDefault("main.log.maxsize", 100)
	viper.SetDefault("main.log.maxbackups", 3)
	viper.SetDefault("main.log.maxage", 28)

	viper.SetDefault("classifier.modelpath", "")
	viper.SetDefault("classifier.rules.depthmedium", 5.0)
	viper.SetDefault("classifier.rules.depthhigh", 15.0)
	viper.SetDefault("classifier.normalization.temperaturemin", -40.0)
	viper.SetDefault("classifier.normalization.temperaturemax", 50.0)
	viper.SetDefault("classifier.normalization.humiditymin", 0.0)
	viper.SetDefault("classifier.normalization.humiditymax", 100.0)
	viper.SetDefault("classifier.criticalmethods", []string{"UZK", "RGK", "MFL", "UTWM"})

	viper.SetDefault("webserver.enabled", true)
	viper.SetDefault("webserver.debug", false)
	viper.SetDefault("webserver.port", "8080")

	viper.SetDefault("dashboard.cachettl", 60)

	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "pipewatch.db")

	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.username", "pipewatch")
	viper.SetDefault("output.mysql.password", "secret")
	viper.SetDefault("output.mysql.database", "pipewatch")
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", "3306")
}
