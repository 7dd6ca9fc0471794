package config

import (
	"flag"
	"os"
	"time"

	"github.com/opensource-kemini/kemini-backend/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-t int      presigned upload URL validity, minutes
//	-u string   S3 access key
//	-p string   S3 secret key
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-cr string  Cognito region
//	-ci string  Cognito app client id
//	-cs string  Cognito app client secret
//	-cu string  Cognito user pool id
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components. Duration flags
// are accepted as integers in minutes.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-d", "-t", "-u", "-p", "-b", "-g", "-e", "-cr", "-ci", "-cs", "-cu",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")

	uploadURLTTL := fs.Int("t", int(config.UploadURLTTL.Minutes()), "upload URL validity (in minutes)")

	fs.StringVar(&config.S3AccessKey, "u", config.S3AccessKey, "S3 access key")
	fs.StringVar(&config.S3SecretKey, "p", config.S3SecretKey, "S3 secret key")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	fs.StringVar(&config.CognitoRegion, "cr", config.CognitoRegion, "Cognito region")
	fs.StringVar(&config.CognitoClientID, "ci", config.CognitoClientID, "Cognito app client id")
	fs.StringVar(&config.CognitoClientSecret, "cs", config.CognitoClientSecret, "Cognito app client secret")
	fs.StringVar(&config.CognitoUserPoolID, "cu", config.CognitoUserPoolID, "Cognito user pool id")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.UploadURLTTL = time.Duration(*uploadURLTTL) * time.Minute
}
