package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectKey(t *testing.T) {
	tests := []struct {
		prefix, key, want string
	}{
		{"", "admin/1/Example_scan.json", "admin/1/Example_scan.json"},
		{"exports/", "admin/1/Example_scan.json", "exports/admin/1/Example_scan.json"},
		{"exports", "/a//b.json", "exports/a/b.json"},
		{"exports", "../../x/Evil_Corp_scan.json", "exports/x/Evil_Corp_scan.json"},
		{"exports", "alice/7/../../../bob/7/Evil_Corp_scan.json", "exports/bob/7/Evil_Corp_scan.json"},
		{"", "../../etc/passwd", "etc/passwd"},
		{"exports", "alice/7/.._.._x_Evil_Corp_scan.json", "exports/alice/7/.._.._x_Evil_Corp_scan.json"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ObjectKey(tt.prefix, tt.key), "%s + %s", tt.prefix, tt.key)
	}
}
