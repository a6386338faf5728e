package main

import (
	"fmt"
	"os"

	"github.com/aluedeke/go-safari-xcode/pkg/safarixcode"
	"github.com/docopt/docopt-go"
	"go.uber.org/zap"
)

const version = "1.0.0"

const usage = `safari-xcode - Safari Web Extension Xcode Project Updater

Rewrites the Xcode project generated by safari-web-extension-converter so it
carries your project name, App Store category, bundle identifier and team.

Usage:
  safari-xcode update [--config=<path>] [--root=<path>] [--output=<path>] [--name=<name>] [--category=<cat>] [--bundleid=<id>] [--team=<id>] [--profile=<path>] [--p12=<path>] [--password=<pw>] [--marketing-version=<v>] [--build-number=<n>] [--verbose]
  safari-xcode info [--config=<path>] [--root=<path>] [--output=<path>] [--name=<name>]
  safari-xcode info --profile=<path>
  safari-xcode -h | --help
  safari-xcode --version

Commands:
  update    Apply name, category, bundle identifier and team to the project
  info      Display the targets and identifiers of a converted project, or a provisioning profile

Options:
  --config=<path>          YAML config file (defaults to <root>/safari-xcode.yaml when present)
  --root=<path>            Extension project root (defaults to the current directory)
  --output=<path>          Directory the converter wrote the project to (defaults to .output/<name>/)
  --name=<name>            Xcode project name (defaults to the name in package.json)
  --category=<cat>         App Store category, e.g. public.app-category.productivity
  --bundleid=<id>          Bundle identifier of the containing app, e.g. com.example.myapp
  --team=<id>              Apple Developer Team ID, e.g. ABCDE12345
  --profile=<path>         Provisioning profile to read the team from when --team is not given
  --p12=<path>             P12 or PEM signing certificate to read the team from when --team is not given
  --password=<pw>          Password for the P12 certificate
  --marketing-version=<v>  Marketing version (defaults to the version in package.json)
  --build-number=<n>       Build number
  --verbose                Log every step
  -h --help                Show this help message
  --version                Show version

Environment Variables:
  SAFARI_XCODE_NAME, SAFARI_XCODE_OUTPUT, SAFARI_XCODE_CATEGORY,
  SAFARI_XCODE_BUNDLE_ID, SAFARI_XCODE_TEAM, SAFARI_XCODE_PROFILE,
  SAFARI_XCODE_P12, SAFARI_XCODE_PASSWORD, SAFARI_XCODE_VERSION,
  SAFARI_XCODE_BUILD   Overridden by the matching flag. A .env file in the
                       root is read as well.

Examples:
  # Convert, then update the generated project
  xcrun safari-web-extension-converter --bundle-identifier com.example.myapp --force --project-location .output/MyApp/ .output/safari-mv3
  safari-xcode update --name=MyApp --category=public.app-category.productivity --bundleid=com.example.myapp

  # Take the team from a provisioning profile
  safari-xcode update --bundleid=com.example.myapp --category=public.app-category.productivity --profile=dev.mobileprovision

  # Show what the project currently carries
  safari-xcode info --name=MyApp
`

func main() {
	opts, err := docopt.ParseArgs(usage, os.Args[1:], version)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing arguments: %v\n", err)
		os.Exit(1)
	}

	if update, _ := opts.Bool("update"); update {
		if err := runUpdate(opts); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	} else if info, _ := opts.Bool("info"); info {
		if err := runInfo(opts); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
}

// flagsFromOpts collects the options shared by all commands.
func flagsFromOpts(opts docopt.Opts) flagConfig {
	var f flagConfig
	f.ConfigFile, _ = opts.String("--config")
	f.Root, _ = opts.String("--root")
	f.Output, _ = opts.String("--output")
	f.Name, _ = opts.String("--name")
	f.Category, _ = opts.String("--category")
	f.BundleID, _ = opts.String("--bundleid")
	f.Team, _ = opts.String("--team")
	f.Profile, _ = opts.String("--profile")
	f.P12, _ = opts.String("--p12")
	f.Password, _ = opts.String("--password")
	f.Version, _ = opts.String("--marketing-version")
	f.Build, _ = opts.String("--build-number")
	return f
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

func runUpdate(opts docopt.Opts) error {
	verbose, _ := opts.Bool("--verbose")
	logger, err := newLogger(verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := resolveConfig(flagsFromOpts(opts), logger)
	if err != nil {
		return err
	}

	fmt.Printf("Updating Xcode project: %s\n", cfg.ProjectLocation())
	fmt.Printf("Project name: %s\n", cfg.ProjectName)
	fmt.Printf("Category:     %s\n", cfg.AppCategory)
	fmt.Printf("App ID:       %s\n", safarixcode.BundleIDFor(safarixcode.RoleApplication, cfg.BundleIdentifier))
	fmt.Printf("Extension ID: %s\n", safarixcode.BundleIDFor(safarixcode.RoleExtension, cfg.BundleIdentifier))
	if cfg.DevelopmentTeam != "" {
		fmt.Printf("Team ID:      %s\n", cfg.DevelopmentTeam)
	} else {
		fmt.Println("Team ID:      (not set, select a team in Xcode before signing)")
	}
	if cfg.MarketingVersion != "" {
		fmt.Printf("Version:      %s\n", cfg.MarketingVersion)
	}
	if cfg.BuildNumber != "" {
		fmt.Printf("Build:        %s\n", cfg.BuildNumber)
	}
	fmt.Println()

	if err := safarixcode.NewUpdater(logger).Run(cfg); err != nil {
		return err
	}

	fmt.Printf("Successfully updated Xcode project: %s\n", cfg.ProjectLocation())
	return nil
}

func runInfo(opts docopt.Opts) error {
	flags := flagsFromOpts(opts)
	if flags.Profile != "" {
		return showProfileInfo(flags.Profile)
	}

	loc, err := resolveLocation(flags, zap.NewNop())
	if err != nil {
		return err
	}

	info, err := safarixcode.Inspect(loc.Root, loc.Output, loc.Name)
	if err != nil {
		return err
	}
	showProjectInfo(info)
	return nil
}

func showProjectInfo(info *safarixcode.ProjectInfo) {
	fmt.Println("Xcode Project Information")
	fmt.Println("=========================")
	fmt.Printf("Project:      %s\n", info.Paths.ProjectDir)
	fmt.Printf("Build config: %s\n", info.Paths.BuildConfig)

	fmt.Println()
	fmt.Println("Targets")
	fmt.Println("-------")
	for _, t := range info.Targets {
		fmt.Printf("  %s (%s)\n", t.Name, t.Role)
		for _, c := range t.Configurations {
			fmt.Printf("    [%s]\n", c.Name)
			fmt.Printf("      Bundle ID:    %s\n", c.Settings[safarixcode.SettingBundleIdentifier])
			fmt.Printf("      Display name: %s\n", c.Settings[safarixcode.SettingDisplayName])
			if category := c.Settings[safarixcode.SettingAppCategory]; category != "" {
				fmt.Printf("      Category:     %s\n", category)
			}
			if team := c.Settings[safarixcode.SettingDevelopmentTeam]; team != "" {
				fmt.Printf("      Team ID:      %s\n", team)
			}
			if v := c.Settings[safarixcode.SettingMarketingVersion]; v != "" {
				fmt.Printf("      Version:      %s (%s)\n", v, c.Settings[safarixcode.SettingProjectVersion])
			}
		}
	}

	fmt.Println()
	fmt.Println("Info.plist files")
	fmt.Println("----------------")
	for _, md := range info.Metadata {
		fmt.Printf("  %s (%s)\n", md.Path, md.Role)
		fmt.Printf("      Bundle ID:    %s\n", md.BundleID)
		fmt.Printf("      Display name: %s\n", md.DisplayName)
		if md.Category != "" {
			fmt.Printf("      Category:     %s\n", md.Category)
		}
	}
}

func showProfileInfo(profilePath string) error {
	profileData, err := os.ReadFile(profilePath)
	if err != nil {
		return fmt.Errorf("failed to read profile: %w", err)
	}

	profile, err := safarixcode.ParseProvisioningProfile(profileData)
	if err != nil {
		return fmt.Errorf("failed to parse profile: %w", err)
	}

	fmt.Println("Provisioning Profile Information")
	fmt.Println("================================")
	fmt.Printf("File:           %s\n", profilePath)
	fmt.Printf("Name:           %s\n", profile.Name)
	fmt.Printf("Team:           %s (%s)\n", profile.TeamName, profile.GetTeamID())
	fmt.Printf("App ID:         %s\n", profile.GetApplicationIdentifier())
	fmt.Printf("UUID:           %s\n", profile.UUID)
	fmt.Printf("Platforms:      %v\n", profile.Platform)
	fmt.Printf("Expiration:     %s\n", profile.ExpirationDate.Format("2006-01-02 15:04:05"))
	fmt.Printf("Expired:        %v\n", profile.IsExpired())
	return nil
}
