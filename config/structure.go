package config

import "time"

type Config struct {
	Environment    string
	LogFolder      string
	DataFolder     string
	Port           string
	SampleInterval time.Duration
	SampleRate     float64
	EncoderCommand string
	S3Config       S3
	SSLConfig      SSL
}

type S3 struct {
	AccessKey   string
	SecretKey   string
	Region      string
	Bucket      string
	EndpointUrl string
}

// Enabled reports whether enough is configured to talk to a bucket.
func (s S3) Enabled() bool {
	return s.Bucket != "" && s.Region != ""
}

type SSL struct {
	CertFile string
	KeyFile  string
}
