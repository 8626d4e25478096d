package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lpcontrol/pkg/config"
)

func queueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect the async command queue",
	}

	purgeCmd := &cobra.Command{
		Use:   "purge",
		Short: "Drop every queued lifecycle command",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			if s.RabbitMQHost == "" {
				return fmt.Errorf("RABBITMQ_HOST is not set")
			}
			config.InitRabbitMQ(s)
			defer config.RabbitMQ.Close()

			n, err := config.PurgeQueue(s.CommandQueue)
			if err != nil {
				return err
			}
			fmt.Printf("purged %d commands from %s\n", n, s.CommandQueue)
			return nil
		},
	}

	cmd.AddCommand(purgeCmd)
	return cmd
}
