package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

var (
	profileBrandVoice  string
	profileAudience    string
	profileDescription string
	profileGuidelines  string
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage brand profiles",
	Long:  `Profiles frame retrieved context with a brand voice, audience and guidelines.`,
}

var profileCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileCreate,
}

var profileShowCmd = &cobra.Command{
	Use:   "show [profile-id]",
	Short: "Show a profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileShow,
}

func init() {
	profileCreateCmd.Flags().StringVar(&profileBrandVoice, "voice", "", "brand voice")
	profileCreateCmd.Flags().StringVar(&profileAudience, "audience", "", "target audience")
	profileCreateCmd.Flags().StringVar(&profileDescription, "description", "", "brand description")
	profileCreateCmd.Flags().StringVar(&profileGuidelines, "guidelines", "", "comma-separated guidelines")

	profileCmd.AddCommand(profileCreateCmd)
	profileCmd.AddCommand(profileShowCmd)
	rootCmd.AddCommand(profileCmd)
}

func runProfileCreate(cmd *cobra.Command, args []string) error {
	if profileService == nil {
		return fmt.Errorf("profile service %w", errNotConfigured)
	}

	profile, err := profileService.Create(commandContext(cmd), &domain.Profile{
		Name:        args[0],
		BrandVoice:  profileBrandVoice,
		Audience:    profileAudience,
		Description: profileDescription,
		Guidelines:  splitList(profileGuidelines),
	})
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}

	cmd.Printf("Created profile %s (%s)\n", profile.ID, profile.Name)
	return nil
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	if profileService == nil {
		return fmt.Errorf("profile service %w", errNotConfigured)
	}

	profile, err := profileService.Get(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("failed to get profile: %w", err)
	}

	cmd.Printf("Profile:     %s\n", profile.Name)
	cmd.Printf("ID:          %s\n", profile.ID)
	if profile.BrandVoice != "" {
		cmd.Printf("Voice:       %s\n", profile.BrandVoice)
	}
	if profile.Audience != "" {
		cmd.Printf("Audience:    %s\n", profile.Audience)
	}
	if profile.Description != "" {
		cmd.Printf("Description: %s\n", profile.Description)
	}
	if len(profile.Guidelines) > 0 {
		cmd.Printf("Guidelines:  %s\n", strings.Join(profile.Guidelines, "; "))
	}
	return nil
}
