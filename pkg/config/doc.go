// Package config loads desired-state documents and the settings of the
// command line tool.
//
// # Documents
//
// A document is a JSON or YAML mapping from a kind's document key to a list
// of entities. An optional "__metadata__" section is kept on the document
// and ignored by the engine:
//
//	__metadata__:
//	  author: ops
//	tenants:
//	  - name: T1
//	switches:
//	  - tenant: T1
//	    name: S1
//	    physicalSwitch: ${PHYSICAL_SWITCH}
//
// Before parsing, ${NAME} variables are replaced with values from the
// process environment; an undefined variable fails the load with an
// *UndefinedVariableError. Unknown sections, unknown properties and
// entities failing struct validation are reported as *DocumentError with
// the line of the defect.
//
// # Settings
//
// Settings are read from $HOME/.confsync/settings.yaml by default:
//
//	store: /var/lib/confsync/confsync.db
//	logLevel: debug
//	traceExporter: otlp
//	otlpEndpoint: localhost:4317
//	policyDirs:
//	  - /etc/confsync/policies
//
// A missing file yields DefaultSettings.
package config
