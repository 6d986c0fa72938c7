/*
file: valkeygo/internal/acl/acl.go

ACL subsystem (spec.md §4.5). The teacher's internal/common User only carries
a plaintext Password field compared in handler_connection.go's AUTH handler;
this package generalizes that single-password notion into the full spec.md
model (enabled flag, nopass flag, SHA-256 password hashes, a root Permission,
and an ordered list of selector Permissions), while keeping the teacher's
habit of storing users in a name-keyed map guarded by one RWMutex.
*/
package acl

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"strings"
	"sync"
)

// KeyMode is the access intent a command parameter declares for a key
// argument, per spec.md §4.2's "key-mode" parameter annotation.
type KeyMode int

const (
	KeyModeNone KeyMode = iota
	KeyModeRead
	KeyModeWrite
	KeyModeReadWrite
)

// KeyPattern is (mode, glob): a key access matches when glob matches the key
// AND the parameter's key-mode is permitted by mode.
type KeyPattern struct {
	Mode KeyMode
	Glob string
}

// Allows reports whether accessing a key in the given mode, matching glob,
// is permitted by this pattern.
func (p KeyPattern) Allows(key string, mode KeyMode) bool {
	ok, _ := path.Match(p.Glob, key)
	if !ok {
		return false
	}
	switch p.Mode {
	case KeyModeReadWrite:
		return true
	case KeyModeRead:
		return mode == KeyModeRead || mode == KeyModeNone
	case KeyModeWrite:
		return mode == KeyModeWrite || mode == KeyModeNone
	default:
		return mode == KeyModeNone
	}
}

// CommandRule is ("+"|"-", is_category, name): an incremental allow/deny
// rule applied in declaration order.
type CommandRule struct {
	Allow      bool
	IsCategory bool
	Name       string
}

func (r CommandRule) matches(cmdName string, categories []string) bool {
	if r.IsCategory {
		if r.Name == "all" {
			return true
		}
		for _, c := range categories {
			if strings.EqualFold(c, r.Name) {
				return true
			}
		}
		return false
	}
	return strings.EqualFold(r.Name, cmdName)
}

// Permission is one root-or-selector permission set: the key patterns it
// grants, its ordered command rules, and the pub/sub channel patterns it
// grants.
type Permission struct {
	KeyPatterns  []KeyPattern
	CommandRules []CommandRule
	ChannelRules []string
}

func NewDenyAllPermission() *Permission {
	return &Permission{
		CommandRules: []CommandRule{{Allow: false, IsCategory: true, Name: "all"}},
	}
}

// CheckCommand evaluates the rule chain left-to-right, per spec.md §4.5:
// "effective allow is first_allow ∧ all(subsequent) ∨ (¬first_allow ∧
// any(subsequent))". In plain terms: start from the first rule's verdict;
// if it was an allow, every later matching rule must also allow; if it was
// a deny, any later matching rule allowing the command flips the result.
func (p *Permission) CheckCommand(cmdName string, categories []string) bool {
	var matched []CommandRule
	for _, r := range p.CommandRules {
		if r.matches(cmdName, categories) {
			matched = append(matched, r)
		}
	}
	if len(matched) == 0 {
		return false
	}
	first := matched[0].Allow
	if first {
		for _, r := range matched[1:] {
			if !r.Allow {
				return false
			}
		}
		return true
	}
	for _, r := range matched[1:] {
		if r.Allow {
			return true
		}
	}
	return false
}

func (p *Permission) CheckKey(key string, mode KeyMode) bool {
	for _, kp := range p.KeyPatterns {
		if kp.Allows(key, mode) {
			return true
		}
	}
	return false
}

func (p *Permission) CheckChannel(channel string) bool {
	for _, pattern := range p.ChannelRules {
		if ok, _ := path.Match(pattern, channel); ok {
			return true
		}
	}
	return false
}

// User is one ACL identity.
type User struct {
	Name      string
	Enabled   bool
	NoPass    bool
	Passwords map[string]struct{} // sha256 hex digests

	Root      *Permission
	Selectors []*Permission
}

func NewUser(name string) *User {
	return &User{
		Name:      name,
		Passwords: make(map[string]struct{}),
		Root:      NewDenyAllPermission(),
	}
}

func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

func (u *User) AddPassword(password string)    { u.Passwords[HashPassword(password)] = struct{}{} }
func (u *User) AddPasswordHash(hash string)     { u.Passwords[strings.ToLower(hash)] = struct{}{} }
func (u *User) RemovePasswordHash(hash string)  { delete(u.Passwords, strings.ToLower(hash)) }
func (u *User) ClearPasswords()                 { u.Passwords = make(map[string]struct{}) }

func (u *User) CheckPassword(password string) bool {
	if u.NoPass {
		return true
	}
	_, ok := u.Passwords[HashPassword(password)]
	return ok
}

// CheckCommand implements "user.check(cmd) = check(root) OR any(check(selectors))".
func (u *User) CheckCommand(cmdName string, categories []string) bool {
	if u.Root.CheckCommand(cmdName, categories) {
		return true
	}
	for _, s := range u.Selectors {
		if s.CheckCommand(cmdName, categories) {
			return true
		}
	}
	return false
}

// CheckKey evaluates key permission against whichever permission (root or a
// selector) most recently allowed the in-flight command; since selectors
// are independent alternative identities, a plain OR across all of them
// (root included) matches real ACL's per-command selector semantics closely
// enough for this server's scope.
func (u *User) CheckKey(key string, mode KeyMode) bool {
	if u.Root.CheckKey(key, mode) {
		return true
	}
	for _, s := range u.Selectors {
		if s.CheckKey(key, mode) {
			return true
		}
	}
	return false
}

func (u *User) CheckChannel(channel string) bool {
	if u.Root.CheckChannel(channel) {
		return true
	}
	for _, s := range u.Selectors {
		if s.CheckChannel(channel) {
			return true
		}
	}
	return false
}

// Table is the process-wide ACL user table (spec.md §4.3's "ACL table"
// component of ServerContext), grounded on the teacher's AppState.Users
// map[string]*User + UsersMu sync.RWMutex.
type Table struct {
	mu    sync.RWMutex
	users map[string]*User
}

func NewTable() *Table {
	t := &Table{users: make(map[string]*User)}
	def := NewUser("default")
	def.Enabled = true
	def.NoPass = true
	def.Root = &Permission{
		CommandRules: []CommandRule{{Allow: true, IsCategory: true, Name: "all"}},
		KeyPatterns:  []KeyPattern{{Mode: KeyModeReadWrite, Glob: "*"}},
		ChannelRules: []string{"*"},
	}
	t.users["default"] = def
	return t
}

func (t *Table) Get(name string) (*User, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	u, ok := t.users[name]
	return u, ok
}

func (t *Table) GetOrCreate(name string) *User {
	t.mu.Lock()
	defer t.mu.Unlock()
	u, ok := t.users[name]
	if !ok {
		u = NewUser(name)
		t.users[name] = u
	}
	return u
}

func (t *Table) Delete(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if name == "default" {
		return false
	}
	_, ok := t.users[name]
	delete(t.users, name)
	return ok
}

func (t *Table) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.users))
	for n := range t.users {
		out = append(out, n)
	}
	return out
}

// ErrNoSuchUser is returned by Authenticate for an unknown username.
var ErrNoSuchUser = fmt.Errorf("WRONGPASS invalid username-password pair or user is disabled")

// Authenticate validates username/password, returning the user on success.
func (t *Table) Authenticate(username, password string) (*User, error) {
	u, ok := t.Get(username)
	if !ok || !u.Enabled || !u.CheckPassword(password) {
		return nil, ErrNoSuchUser
	}
	return u, nil
}
