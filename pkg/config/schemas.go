package config

// catalogSchema constrains catalog files. Definitions are closed, so unknown
// fields are rejected.
const catalogSchema = `
// Entry is one installable package.
#Entry: {
	// package is the name handed to the package installer
	package: string & =~ #"^[A-Za-z0-9][A-Za-z0-9._-]*$"#

	// module is the dotted import path registered with the framework
	module?: string & =~ #"^[A-Za-z_]\w*(\.[A-Za-z_]\w*)*$"#
}

#Catalog: {
	packages: [...#Entry]
}
`
