package conf

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaultConfig sets the default values for each configuration parameter.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "recdeck")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "logs")

	viper.SetDefault("store.baseurl", "http://localhost:8090/data")
	viper.SetDefault("store.timeout", 30*time.Second)
	viper.SetDefault("store.cachettl", 30*time.Second)
	viper.SetDefault("store.useragent", "")
	viper.SetDefault("store.logrequests", false)

	viper.SetDefault("notify.enabled", false)
	viper.SetDefault("notify.broker", "")
	viper.SetDefault("notify.topic", "recdeck/records")
	viper.SetDefault("notify.clientid", "recdeck")
	viper.SetDefault("notify.username", "")
	viper.SetDefault("notify.password", "")

	viper.SetDefault("devserver.listen", "localhost:8090")
	viper.SetDefault("devserver.basepath", "/data")
	viper.SetDefault("devserver.backend", "memory")
	viper.SetDefault("devserver.database", "recdeck.db")
}
