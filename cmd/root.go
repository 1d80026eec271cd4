package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/arguslabs/argus/internal/config"
	"github.com/arguslabs/argus/internal/logging"
	"github.com/arguslabs/argus/pkg/awsclient"
)

var (
	// Global flags
	profile  string
	region   string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "argus",
	Short: "Argus - convenience CLI over common AWS services",
	Long: `Argus is a command-line interface over the AWS service wrappers in this
module. It reads credentials from the standard AWS shared config and keeps
its own defaults in ~/.argus/config.yaml.

Examples:
  argus status                     # Show the current caller identity
  argus s3 ls                      # List buckets
  argus s3 touch my-bucket a.txt   # Refresh an object's timestamp
  argus vm ls --state running      # List running EC2 instances
  argus queue peek my-queue        # Peek at queue messages
  argus fn ls                      # List Lambda functions
  argus param get /app/db/host     # Read a parameter or secret`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "", "AWS profile to use")
	rootCmd.PersistentFlags().StringVarP(&region, "region", "r", "", "AWS region to use")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	// Bind flags to viper
	_ = viper.BindPFlag("profile", rootCmd.PersistentFlags().Lookup("profile"))
	_ = viper.BindPFlag("region", rootCmd.PersistentFlags().Lookup("region"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	// Read from environment variables
	viper.SetEnvPrefix("ARGUS")
	viper.AutomaticEnv()

	cfg, err := config.LoadConfig()
	if err != nil {
		cfg = &config.Config{}
	}

	// Priority for profile: --profile flag > ~/.argus/config.yaml > AWS_PROFILE env
	if profile == "" {
		if cfg.AWSProfile != "" {
			profile = cfg.AWSProfile
		} else {
			profile = os.Getenv("AWS_PROFILE")
		}
	}

	// Use AWS_REGION if --region not specified
	if region == "" {
		if cfg.AWSRegion != "" {
			region = cfg.AWSRegion
		} else {
			region = os.Getenv("AWS_REGION")
			if region == "" {
				region = os.Getenv("AWS_DEFAULT_REGION")
			}
		}
	}

	if logLevel == "" {
		logLevel = viper.GetString("log_level")
	}
	if logLevel == "" {
		logLevel = cfg.LogLevel
	}
	logging.Setup(logLevel, true)
}

// newClient builds the AWS session for the current invocation.
func newClient(ctx context.Context) (*awsclient.Client, error) {
	client, err := awsclient.New(ctx,
		awsclient.WithProfile(profile),
		awsclient.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS client: %w", err)
	}
	return client, nil
}

// GetProfile returns the AWS profile
func GetProfile() string {
	return profile
}

// GetRegion returns the AWS region
func GetRegion() string {
	return region
}
