// Command igmigrate manages the automation database schema. It applies,
// rolls back and inspects the registered migration history against SQLite
// or MySQL, guarded by a cross process ledger lock so concurrent deploys
// cannot interleave schema changes.
package main

import "os"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
