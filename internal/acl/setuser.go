package acl

import (
	"fmt"
	"strings"
)

// ApplyRules mutates user according to the ACL SETUSER token stream, per
// spec.md §4.5's example grammar: on/off, nopass/resetpass, +cmd/-cmd,
// +@category/-@category, ~pattern / %RW~pattern key patterns, &channel
// channel patterns, resetkeys/resetchannels/reset, and parenthesized
// selector groups "(...)" that each become one appended Permission.
func (u *User) ApplyRules(tokens []string) error {
	i := 0
	for i < len(tokens) {
		tok := tokens[i]
		if strings.HasPrefix(tok, "(") {
			group, consumed, err := collectGroup(tokens, i)
			if err != nil {
				return err
			}
			selector := &Permission{}
			if err := applyPermissionTokens(selector, group); err != nil {
				return err
			}
			u.Selectors = append(u.Selectors, selector)
			i += consumed
			continue
		}

		switch {
		case tok == "on":
			u.Enabled = true
		case tok == "off":
			u.Enabled = false
		case tok == "nopass":
			u.NoPass = true
			u.ClearPasswords()
		case tok == "resetpass":
			u.NoPass = false
			u.ClearPasswords()
		case tok == "reset":
			u.Enabled = false
			u.NoPass = false
			u.ClearPasswords()
			u.Root = NewDenyAllPermission()
			u.Selectors = nil
		case tok == "resetkeys":
			u.Root.KeyPatterns = nil
		case tok == "resetchannels":
			u.Root.ChannelRules = nil
		case strings.HasPrefix(tok, ">"):
			u.AddPassword(tok[1:])
		case strings.HasPrefix(tok, "<"):
			u.RemovePasswordHash(HashPassword(tok[1:]))
		case strings.HasPrefix(tok, "#"):
			u.AddPasswordHash(tok[1:])
		case strings.HasPrefix(tok, "!"):
			u.RemovePasswordHash(tok[1:])
		default:
			if err := applyPermissionTokens(u.Root, []string{tok}); err != nil {
				return err
			}
		}
		i++
	}
	return nil
}

func collectGroup(tokens []string, start int) (group []string, consumed int, err error) {
	depth := 0
	for i := start; i < len(tokens); i++ {
		tok := tokens[i]
		if strings.HasPrefix(tok, "(") {
			depth++
			tok = strings.TrimPrefix(tok, "(")
		}
		closed := strings.HasSuffix(tok, ")")
		if closed {
			tok = strings.TrimSuffix(tok, ")")
			depth--
		}
		if tok != "" {
			group = append(group, tok)
		}
		if depth == 0 {
			return group, i - start + 1, nil
		}
	}
	return nil, 0, fmt.Errorf("ERR unmatched parenthesis in selector")
}

// applyPermissionTokens handles the command-rule / key-pattern / channel
// tokens shared by both the root permission and selector groups.
func applyPermissionTokens(p *Permission, tokens []string) error {
	for _, tok := range tokens {
		switch {
		case strings.HasPrefix(tok, "+@"):
			p.CommandRules = append(p.CommandRules, CommandRule{Allow: true, IsCategory: true, Name: tok[2:]})
		case strings.HasPrefix(tok, "-@"):
			p.CommandRules = append(p.CommandRules, CommandRule{Allow: false, IsCategory: true, Name: tok[2:]})
		case strings.HasPrefix(tok, "+"):
			p.CommandRules = append(p.CommandRules, CommandRule{Allow: true, Name: strings.ToLower(tok[1:])})
		case strings.HasPrefix(tok, "-"):
			p.CommandRules = append(p.CommandRules, CommandRule{Allow: false, Name: strings.ToLower(tok[1:])})
		case strings.HasPrefix(tok, "~"):
			p.KeyPatterns = append(p.KeyPatterns, KeyPattern{Mode: KeyModeReadWrite, Glob: tok[1:]})
		case strings.HasPrefix(tok, "%RW~"):
			p.KeyPatterns = append(p.KeyPatterns, KeyPattern{Mode: KeyModeReadWrite, Glob: tok[4:]})
		case strings.HasPrefix(tok, "%R~"):
			p.KeyPatterns = append(p.KeyPatterns, KeyPattern{Mode: KeyModeRead, Glob: tok[3:]})
		case strings.HasPrefix(tok, "%W~"):
			p.KeyPatterns = append(p.KeyPatterns, KeyPattern{Mode: KeyModeWrite, Glob: tok[3:]})
		case tok == "allkeys":
			p.KeyPatterns = append(p.KeyPatterns, KeyPattern{Mode: KeyModeReadWrite, Glob: "*"})
		case tok == "allcommands":
			p.CommandRules = append(p.CommandRules, CommandRule{Allow: true, IsCategory: true, Name: "all"})
		case tok == "nocommands":
			p.CommandRules = append(p.CommandRules, CommandRule{Allow: false, IsCategory: true, Name: "all"})
		case tok == "allchannels":
			p.ChannelRules = append(p.ChannelRules, "*")
		case strings.HasPrefix(tok, "&"):
			p.ChannelRules = append(p.ChannelRules, tok[1:])
		default:
			return fmt.Errorf("ERR Error in ACL SETUSER modifier '%s': Syntax error", tok)
		}
	}
	return nil
}
