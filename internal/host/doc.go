// Package host is the boundary to the application whose extensions are
// being installed. VaultHost implements it for an Obsidian-style vault
// directory: packages live under .obsidian/plugins/<id>/, themes under
// .obsidian/themes/<name>/, and enabled packages are listed in
// .obsidian/community-plugins.json.
package host
