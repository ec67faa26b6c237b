// Package platform holds the permission modes used for extension folders,
// tracking data and the config file. Permission changes are no-ops on
// Windows.
package platform
