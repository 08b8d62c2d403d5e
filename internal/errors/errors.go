// Package errors defines the stable error taxonomy shared by every core
// component. Each kind is a distinct sentinel-comparable value so callers can
// use errors.Is / errors.As across package boundaries instead of matching on
// message text.
package errors

import "fmt"

type Kind string

const (
	KindRepoAlreadyExists      Kind = "REPO_ALREADY_EXISTS"
	KindPathNotFound           Kind = "PATH_NOT_FOUND"
	KindInvalidPath            Kind = "INVALID_PATH"
	KindDetachedHeadUnsupported Kind = "DETACHED_HEAD_UNSUPPORTED"
	KindEmptyRepository        Kind = "EMPTY_REPOSITORY"
	KindBranchExists           Kind = "BRANCH_EXISTS"
	KindBranchMissing          Kind = "BRANCH_MISSING"
	KindUnknownRevision        Kind = "UNKNOWN_REVISION"
	KindObjectMissing          Kind = "OBJECT_MISSING"
	KindNoCommonAncestor       Kind = "NO_COMMON_ANCESTOR"
	KindMergeConflict          Kind = "MERGE_CONFLICT"
	KindUsage                  Kind = "USAGE"
)

// Error is the concrete type returned by every core component for
// user-visible failures. Internal invariant violations still wrap with
// KindObjectMissing so they surface through the same taxonomy.
type Error struct {
	Kind    Kind
	Message string

	// Conflicts holds the offending paths for a KindMergeConflict error.
	Conflicts []string
}

func (e *Error) Error() string {
	return e.Message
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func RepoAlreadyExists(path string) *Error {
	return New(KindRepoAlreadyExists, fmt.Sprintf("a minigit repository already exists at %s", path))
}

func PathNotFound(path string) *Error {
	return New(KindPathNotFound, fmt.Sprintf("path not found: %s", path))
}

func InvalidPath(path string) *Error {
	return New(KindInvalidPath, fmt.Sprintf("invalid path %q: paths may not contain ':' or a newline", path))
}

func DetachedHeadUnsupported() *Error {
	return New(KindDetachedHeadUnsupported, "HEAD is detached; this operation requires an attached branch")
}

func EmptyRepository() *Error {
	return New(KindEmptyRepository, "repository has no commits yet")
}

func BranchExists(name string) *Error {
	return New(KindBranchExists, fmt.Sprintf("branch already exists: %s", name))
}

func BranchMissing(name string) *Error {
	return New(KindBranchMissing, fmt.Sprintf("branch does not exist: %s", name))
}

func UnknownRevision(rev string) *Error {
	return New(KindUnknownRevision, fmt.Sprintf("unknown revision: %s", rev))
}

func ObjectMissing(id string) *Error {
	return New(KindObjectMissing, fmt.Sprintf("object missing from store: %s", id))
}

func NoCommonAncestor() *Error {
	return New(KindNoCommonAncestor, "no common ancestor between the two histories")
}

func MergeConflict(paths []string) *Error {
	return &Error{
		Kind:      KindMergeConflict,
		Message:   fmt.Sprintf("merge conflict in %d path(s)", len(paths)),
		Conflicts: paths,
	}
}

func Usage(message string) *Error {
	return New(KindUsage, message)
}

// Is lets errors.Is(err, errors.New(errors.KindX, "")) match any *Error of
// kind KindX by comparing the Kind field, mirroring how callers actually
// want to branch on these errors.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

// ExitCode maps every taxonomy member to the CLI's binary exit contract:
// every user-visible failure is 1, success paths never construct an Error.
func (e *Error) ExitCode() int {
	return 1
}
