package configuration

import "time"

type ApiConfig struct {
	Enabled bool   `json:"enabled"`
	Host    string `json:"host"`
	Port    int    `json:"port"`
}

type StatisticsConfig struct {
	Enabled bool `json:"enabled"`
	Port    int  `json:"port"`
}

type MqttConfig struct {
	Broker      string        `json:"broker"`
	ClientID    string        `json:"clientId"`
	TopicPrefix string        `json:"topicPrefix"`
	Username    string        `json:"username"`
	Password    string        `json:"password"`
	Interval    time.Duration `json:"interval"`
	// BufferSize is the number of readings kept while the broker is
	// unreachable.
	BufferSize int `json:"bufferSize"`
}
