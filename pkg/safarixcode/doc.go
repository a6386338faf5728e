// Package safarixcode customizes the Xcode project generated by
// safari-web-extension-converter.
//
// The converter names the app after the extension manifest and uses
// placeholder identifiers. This package writes the project name, App Store
// category, bundle identifiers and development team into the build
// configuration (project.pbxproj) and into every target's Info.plist,
// leaving all other content byte for byte as the converter produced it.
//
// # Basic Usage
//
//	err := safarixcode.Run(safarixcode.Config{
//	    ProjectName:      "MyApp",
//	    AppCategory:      "public.app-category.productivity",
//	    BundleIdentifier: "com.example.myapp",
//	    RootPath:         "/path/to/extension",
//	    OutputPath:       ".output/MyApp/",
//	})
//
// # Targets
//
// Application targets get the bundle identifier as given. The extension
// target gets the identifier plus ExtensionBundleIDSuffix, and no store
// category.
//
// # Errors
//
// Failures are one of *ConfigurationError, *ScaffoldNotFoundError,
// *ParseError, *TargetNotFoundError or *IOError; use errors.As to inspect
// them. A run is not atomic across files, but re-running is idempotent.
package safarixcode
