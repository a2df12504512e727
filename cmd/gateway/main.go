package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"vgw/internal/config"
	"vgw/internal/creds"
	"vgw/internal/gateway"
)

func main() {
	var configFile string

	root := &cobra.Command{
		Use:   "vgw-gateway",
		Short: "TLS-terminating VPN gateway daemon",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := config.Load(configFile)
			if err != nil {
				log.Fatalf("Failed to load configuration: %v", err)
			}

			g, err := gateway.New(cfg)
			if err != nil {
				log.Fatalf("Failed to initialize gateway: %v", err)
			}

			g.Run()
		},
	}
	root.Flags().StringVarP(&configFile, "config", "c", "", "path to YAML configuration file")

	fingerprint := &cobra.Command{
		Use:   "fingerprint <cert-file>",
		Short: "Print the SHA-1 fingerprint of a certificate",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			fp, err := creds.Fingerprint(args[0])
			if err != nil {
				log.Fatalf("Failed to fingerprint %s: %v", args[0], err)
			}
			fmt.Println(fp)
		},
	}
	root.AddCommand(fingerprint)

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}
