package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
	"github.com/pageza/foodgram/backend/internal/validation"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd, func(context.Context, *gorm.DB) error {
			fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
			return nil
		})
	},
}

var ingredientsFormat string

var loadIngredientsCmd = &cobra.Command{
	Use:   "load-ingredients <file>",
	Short: "Load ingredients from a JSON or CSV file",
	Long:  "Load ingredients from a JSON array of {name, measurement_unit} objects or a CSV file of name,measurement_unit rows. Existing (name, unit) pairs are skipped.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		format, err := detectFormat(args[0], ingredientsFormat)
		if err != nil {
			return err
		}
		items, err := parseIngredients(f, format)
		if err != nil {
			return err
		}

		return withDB(cmd, func(ctx context.Context, db *gorm.DB) error {
			created, err := service.NewIngredientService(db).ImportIngredients(ctx, items)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d ingredients (%d skipped)\n", created, len(items)-created)
			return nil
		})
	},
}

var loadTagsCmd = &cobra.Command{
	Use:   "load-tags <file>",
	Short: "Load tags from a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		tags, err := parseTags(f, validation.New())
		if err != nil {
			return err
		}

		return withDB(cmd, func(ctx context.Context, db *gorm.DB) error {
			created, err := service.NewTagService(db).ImportTags(ctx, tags)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d tags (%d skipped)\n", created, len(tags)-created)
			return nil
		})
	},
}

var adminRequest types.RegisterRequest

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create a staff account that can manage tags",
	RunE: func(cmd *cobra.Command, args []string) error {
		if adminRequest.Password == "" {
			adminRequest.Password = os.Getenv("ADMIN_PASSWORD")
		}
		if err := validation.New().Struct(&adminRequest); err != nil {
			return fmt.Errorf("invalid admin account: %s", validation.Message(err))
		}

		return withDB(cmd, func(ctx context.Context, db *gorm.DB) error {
			auth := service.NewAuthService(db, "", time.Hour, nil)
			user, err := auth.CreateStaffUser(ctx, &adminRequest)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created staff user %q (id %d)\n", user.Username, user.ID)
			return nil
		})
	},
}

var setupBucketCmd = &cobra.Command{
	Use:   "setup-bucket",
	Short: "Allow public reads of uploaded recipe images",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if !cfg.S3Enabled() {
			return fmt.Errorf("S3_BUCKET_NAME is not set")
		}
		s3cfg, err := config.NewS3Config(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		if err := s3cfg.SetupBucketPolicy(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Bucket %s now serves %s\n", s3cfg.BucketName, s3cfg.ObjectURL("recipes/"))
		return nil
	},
}

func init() {
	loadIngredientsCmd.Flags().StringVar(&ingredientsFormat, "format", "", "Input format: json or csv (default: from the file extension)")

	createAdminCmd.Flags().StringVar(&adminRequest.Email, "email", "", "Email address")
	createAdminCmd.Flags().StringVar(&adminRequest.Username, "username", "", "Username")
	createAdminCmd.Flags().StringVar(&adminRequest.FirstName, "first-name", "Admin", "First name")
	createAdminCmd.Flags().StringVar(&adminRequest.LastName, "last-name", "User", "Last name")
	createAdminCmd.Flags().StringVar(&adminRequest.Password, "password", "", "Password (default: $ADMIN_PASSWORD)")
}
