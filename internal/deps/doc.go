// Package deps checks and installs the external tools stemsplit shells out to.
//
// CheckBinaries reports PATH availability for a list of requirements,
// DetectDemucs confirms the separator answers with its usage text, and
// Installer drives the Python package installer when the user agrees to a
// one-shot install.
package deps
