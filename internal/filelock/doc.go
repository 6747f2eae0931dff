// Package filelock tracks which plan of a running wave declared each file.
//
// Plans list the files they expect to change in the files_modified
// frontmatter field. Plans in one wave run concurrently, so two of them
// declaring the same file usually means the phase was planned with a
// missing dependency. The [Registry] records a claim for every declared
// file when a plan launches and reports a [Conflict] when another plan of
// the same wave already holds it. Claims are advisory: a conflicting plan
// still runs. Releasing a plan's claims after its wave lets later waves
// modify the same files freely.
//
// # Basic Usage
//
//	reg := filelock.NewRegistry()
//
//	for _, u := range pending {
//		for _, c := range reg.ClaimUnit(u) {
//			log.Printf("%s and %s both modify %s", c.Owner, c.UnitID, c.FilePath)
//		}
//	}
//
//	// after the wave barrier
//	for _, u := range pending {
//		reg.ReleaseAll(u.ID)
//	}
//
// All [Registry] methods are safe for concurrent use.
package filelock
