package model

import "strings"

const BRANCH_REF_PREFIX = "refs/heads/"

// a branch is a mutable pointer kept by the backend. we only ever
// read it.
type Branch struct {
	Name string `json:"name"`
	CommitHash ObjectId `json:"commit_hash"`
}

func FullBranchName(clippedName string) string {
	return BRANCH_REF_PREFIX + clippedName
}

func ClipBranchName(fullName string) string {
	return strings.TrimPrefix(fullName, BRANCH_REF_PREFIX)
}
