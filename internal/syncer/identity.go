package syncer

// Identity is the pair of identifiers every synced entity carries: the
// renameable short id (qid, tid, ...) and the durable uuid.
type Identity struct {
	ShortID string
	UUID    string
}

// IntegrityRow is what the store knows about an Identity. ExistingUUID is the
// uuid of the live row whose short id matches; ExistingID is the short id of
// the live row whose uuid matches. Either may be empty, and when both are set
// they may come from different rows.
type IntegrityRow struct {
	ExistingUUID string
	ExistingID   string
}

// CheckIdentity decides whether an entity with candidateUUID can be
// synced on its own.
//
//   - short id known, same uuid: safe, nothing about the identity changed.
//   - short id known, other uuid: unsafe, the identity changed.
//   - short id unknown, uuid owned by another entity: unsafe, the full sync
//     has to run its duplicate uuid detection.
//   - neither known: safe, a brand new entity.
func CheckIdentity(candidateUUID string, row IntegrityRow) bool {
	if row.ExistingUUID != "" {
		return row.ExistingUUID == candidateUUID
	}
	return row.ExistingID == ""
}
