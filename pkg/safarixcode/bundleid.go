package safarixcode

// TargetRole tells application targets apart from the embedded Safari
// extension.
type TargetRole int

const (
	RoleOther TargetRole = iota
	RoleApplication
	RoleExtension
)

func (r TargetRole) String() string {
	switch r {
	case RoleApplication:
		return "application"
	case RoleExtension:
		return "extension"
	default:
		return "other"
	}
}

const (
	productTypeApplication  = "com.apple.product-type.application"
	productTypeAppExtension = "com.apple.product-type.app-extension"
)

// roleForProductType maps a PBXNativeTarget productType to a role.
func roleForProductType(productType string) TargetRole {
	switch productType {
	case productTypeApplication:
		return RoleApplication
	case productTypeAppExtension:
		return RoleExtension
	default:
		return RoleOther
	}
}

// ExtensionBundleIDSuffix is appended to the application identifier by
// safari-web-extension-converter for the extension target.
const ExtensionBundleIDSuffix = ".Extension"

// ExtensionBundleID derives the extension identifier from the application
// identifier.
func ExtensionBundleID(base string) string {
	return base + ExtensionBundleIDSuffix
}

// BundleIDFor returns the identifier a target of the given role must carry.
func BundleIDFor(role TargetRole, base string) string {
	if role == RoleExtension {
		return ExtensionBundleID(base)
	}
	return base
}
