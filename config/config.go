package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

var Conf Config

func Load() {
	var err error

	_, err = os.Stat(".env")

	if err != nil {
		log.Println(".env file does not exist\nReading from the environment directly")
	} else {
		err = godotenv.Load(".env")

		if err != nil {
			log.Fatal(err)
		}
	}

	Conf = FromEnv()
}

// FromEnv builds a Config from the current process environment.
func FromEnv() Config {
	return Config{
		Environment: getenv("ENVIRONMENT", "dev"),
		LogFolder:   getenv("LOG_FOLDER", "logs"),
		DataFolder:  getenv("DATA_FOLDER", "data"),
		S3Config: S3{
			Bucket:      os.Getenv("S3_BUCKET_NAME"),
			AccessKey:   os.Getenv("S3_ACCESS_KEY"),
			SecretKey:   os.Getenv("S3_SECRET_KEY"),
			Region:      os.Getenv("S3_REGION"),
			EndpointUrl: os.Getenv("S3_ENDPOINT_URL"),
		},
		SSLConfig: SSL{
			CertFile: os.Getenv("SSL_CERT_FILE"),
			KeyFile:  os.Getenv("SSL_KEY_FILE"),
		},
		Port: getenv("PORT", "8080"),
		SampleInterval: func() time.Duration {
			d, err := time.ParseDuration(os.Getenv("SAMPLE_INTERVAL"))
			if err != nil || d <= 0 {
				return time.Second
			}
			return d
		}(),
		SampleRate: func() float64 {
			rate, err := strconv.ParseFloat(os.Getenv("SAMPLE_RATE"), 64)
			if err != nil || rate <= 0 {
				return 1000
			}
			return rate
		}(),
		EncoderCommand: getenv("ENCODER_COMMAND", "mccdaq-scan"),
	}
}

func GetConfig() Config {
	return Conf
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
