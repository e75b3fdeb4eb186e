package zoom

import "strings"

// ClassList is an ordered set of CSS class names with DOM classList
// semantics. It implements Reflector for the zoom marker.
type ClassList struct {
	names []string
}

// NewClassList builds a list from space separated class names.
func NewClassList(classes ...string) *ClassList {
	c := &ClassList{}
	for _, group := range classes {
		for _, name := range strings.Fields(group) {
			c.Add(name)
		}
	}
	return c
}

func (c *ClassList) Contains(name string) bool {
	for _, n := range c.names {
		if n == name {
			return true
		}
	}
	return false
}

func (c *ClassList) Add(name string) {
	if name == "" || c.Contains(name) {
		return
	}
	c.names = append(c.names, name)
}

func (c *ClassList) Remove(name string) {
	for i, n := range c.names {
		if n == name {
			c.names = append(c.names[:i], c.names[i+1:]...)
			return
		}
	}
}

// Replace swaps old for new in place. Nothing happens if old is absent.
func (c *ClassList) Replace(old, new string) bool {
	for i, n := range c.names {
		if n != old {
			continue
		}
		if c.Contains(new) {
			c.names = append(c.names[:i], c.names[i+1:]...)
		} else {
			c.names[i] = new
		}
		return true
	}
	return false
}

// Reflect swaps the zoom marker of from for the one of to.
func (c *ClassList) Reflect(from, to Level) {
	c.Replace(from.Class(), to.Class())
}

// ZoomLevel returns the level whose marker is present.
func (c *ClassList) ZoomLevel() (Level, bool) {
	for _, n := range c.names {
		if rest, ok := strings.CutPrefix(n, "zoom-"); ok {
			if l, ok := ParseLevel(rest); ok {
				return l, true
			}
		}
	}
	return "", false
}

func (c *ClassList) String() string {
	return strings.Join(c.names, " ")
}
