package release

import "strconv"

// RevisionInfo identifies the source revision of a run.
// It is computed once and passed by value to every stage that names artifacts.
type RevisionInfo struct {
	// CommitCount is the number of commits reachable from HEAD.
	CommitCount int `yaml:"commit_count"`
	// ShortHash is the abbreviated commit hash of HEAD.
	ShortHash string `yaml:"short_hash"`
}

// String renders the revision as "<hash>-<count>", the fragment embedded in archive names.
func (r RevisionInfo) String() string {
	return r.ShortHash + "-" + strconv.Itoa(r.CommitCount)
}
