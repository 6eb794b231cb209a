package gitlab

// RoleToAccessLevel exports roleToAccessLevel for testing.
var RoleToAccessLevel = roleToAccessLevel //nolint:gochecknoglobals // test export

// AccessLevelToRole exports accessLevelToRole for testing.
var AccessLevelToRole = accessLevelToRole //nolint:gochecknoglobals // test export

// IsNameTaken exports isNameTaken for testing.
var IsNameTaken = isNameTaken //nolint:gochecknoglobals // test export

// MapAPIError exports mapAPIError for testing.
var MapAPIError = mapAPIError //nolint:gochecknoglobals // test export

// SortVersionsDescending exports sortVersionsDescending for testing.
var SortVersionsDescending = sortVersionsDescending //nolint:gochecknoglobals // test export
