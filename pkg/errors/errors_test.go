package errors

import (
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithContext(t *testing.T) {
	root := New("boom")
	wrapped := WithContext(WithContext(root, "inner"), "outer")

	assert.Equal(t, "outer: inner: boom", wrapped.Error())
	assert.Equal(t, root, RootCause(wrapped))
	assert.Equal(t, root, RootCause(root))
}

func TestGetPrintableMessage(t *testing.T) {
	friendly := NewFriendlyError("something broke: %d", 42)
	assert.Equal(t, "something broke: 42", GetPrintableMessage(friendly))

	// The friendly message survives context wrapping.
	wrapped := WithContext(PathNotFound{Path: "/data"}, "scan source")
	assert.Equal(t, PathNotFound{Path: "/data"}.FriendlyMessage(),
		GetPrintableMessage(wrapped))

	plain := New("plain")
	assert.Equal(t, "plain", GetPrintableMessage(plain))
}

func TestIsTransient(t *testing.T) {
	transient := TransientIO{Path: "a.txt", Err: New("vanished")}
	assert.True(t, IsTransient(transient))
	assert.True(t, IsTransient(WithContext(transient, "copy file")))

	assert.False(t, IsTransient(PermissionDenied{Path: "a.txt"}))
	assert.False(t, IsTransient(New("other")))
	assert.False(t, IsTransient(WithContext(New("other"), "copy file")))
}

func TestClassifyIO(t *testing.T) {
	assert.Nil(t, ClassifyIO("a.txt", nil))

	permErr := &os.PathError{Op: "open", Path: "a.txt", Err: syscall.EACCES}
	assert.Equal(t, PermissionDenied{Path: "a.txt"}, ClassifyIO("a.txt", permErr))

	spaceErr := &os.PathError{Op: "write", Path: "a.txt", Err: syscall.ENOSPC}
	classified := ClassifyIO("a.txt", spaceErr)
	assert.IsType(t, SizeOrSpace{}, classified)

	vanishedErr := &os.PathError{Op: "open", Path: "a.txt", Err: syscall.ENOENT}
	assert.True(t, IsTransient(ClassifyIO("a.txt", vanishedErr)))
}

func TestClassifyIOPermanent(t *testing.T) {
	// Deterministic failures must never be retried.
	for _, errno := range []syscall.Errno{syscall.EISDIR, syscall.ENOTDIR, syscall.EROFS} {
		raw := &os.PathError{Op: "rename", Path: "a.txt", Err: errno}
		classified := ClassifyIO("a.txt", raw)
		assert.IsType(t, PermanentIO{}, classified)
		assert.False(t, IsTransient(classified))
	}
}
