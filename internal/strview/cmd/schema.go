package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"
)

// Config represents configuration for strview
type Config struct {
	Debug       bool   `json:"debug" jsonschema:"title=Debug,description=Enable debug logging"`
	LogFile     string `json:"logFile" jsonschema:"title=Log File,description=Write logs to this file instead of stderr"`
	MinLength   int    `json:"minLength" jsonschema:"title=Minimum Length,description=Minimum string length in characters"`
	IncludeData bool   `json:"includeData" jsonschema:"title=Include Data,description=Also scan the writable .data section"`
}

var schemaCmd = &cobra.Command{
	Use:    "schema",
	Short:  "Generate JSON schema for configuration",
	Long:   "Generate JSON schema for the strview configuration",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		reflector := new(jsonschema.Reflector)
		bts, err := json.MarshalIndent(reflector.Reflect(&Config{}), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal schema: %w", err)
		}
		fmt.Println(string(bts))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
