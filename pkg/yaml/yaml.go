package yaml

import (
	"bytes"
	"errors"
	"strings"

	"gopkg.in/yaml.v3"
)

func Unmarshal(in []byte, out any) error {
	return yaml.Unmarshal(in, out)
}

func Encode(v any, indent int) ([]byte, error) {
	b := bytes.NewBuffer(nil)
	e := yaml.NewEncoder(b)
	e.SetIndent(indent)

	if err := e.Encode(v); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

// Patch sets key to value inside the mapping at path, keeping comments and
// formatting of the rest of the file. Missing keys of path are created.
// Nil value removes the key.
func Patch(src []byte, key string, value any, path ...string) ([]byte, error) {
	parent, depth, err := findParent(src, path...)
	if err != nil {
		return nil, err
	}

	if depth < len(path) {
		if value == nil {
			return src, nil
		}
		// wrap value into missing keys
		for i := len(path) - 1; i > depth; i-- {
			value = map[string]any{key: value}
			key = path[i]
		}
		value = map[string]any{key: value}
		key = path[depth]
	}

	var dst []byte

	if parent != nil {
		dst, err = replace(src, key, value, parent)
	} else {
		dst, err = appendKey(src, key, value)
	}
	if err != nil {
		return nil, err
	}

	// result must stay a valid config
	if err = yaml.Unmarshal(dst, map[string]any{}); err != nil {
		return nil, err
	}

	return dst, nil
}

// findParent returns the deepest existing mapping on path and its depth.
// Nil node means an empty document.
func findParent(src []byte, path ...string) (*yaml.Node, int, error) {
	if len(src) == 0 {
		return nil, 0, nil
	}

	var root yaml.Node
	if err := yaml.Unmarshal(src, &root); err != nil {
		return nil, 0, err
	}

	if root.Content == nil {
		return nil, 0, nil
	}

	node := root.Content[0] // document
	if node.Kind != yaml.MappingNode {
		if node.Tag == "!!null" {
			return nil, 0, nil
		}
		return nil, 0, errors.New("yaml: document is not a mapping")
	}

	for i, name := range path {
		_, child := findChild(node, name)
		if child == nil || child.Tag == "!!null" {
			// empty "cameras:" line is replaced as a whole
			return node, i, nil
		}
		if child.Kind != yaml.MappingNode {
			return nil, 0, errors.New("yaml: not a mapping: " + strings.Join(path[:i+1], "."))
		}
		node = child
	}

	return node, len(path), nil
}

func findChild(node *yaml.Node, name string) (key, value *yaml.Node) {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == name {
			return node.Content[i], node.Content[i+1]
		}
	}
	return nil, nil
}

func firstChild(node *yaml.Node) *yaml.Node {
	if node.Content == nil {
		return node
	}
	return node.Content[0]
}

func lastChild(node *yaml.Node) *yaml.Node {
	if node.Content == nil {
		return node
	}
	return lastChild(node.Content[len(node.Content)-1])
}

func replace(src []byte, key string, value any, parent *yaml.Node) ([]byte, error) {
	put, err := Encode(map[string]any{key: value}, 2)
	if err != nil {
		return nil, err
	}

	var i0, i1 int

	if nodeKey, nodeValue := findChild(parent, key); nodeKey != nil {
		put = addIndent(put, nodeKey.Column-1)
		i0 = lineOffset(src, nodeKey.Line)
		if nodeValue.Tag == "!!null" {
			i1 = lineOffset(src, nodeKey.Line+1)
		} else {
			i1 = lineOffset(src, lastChild(nodeValue).Line+1)
		}
	} else {
		if value == nil {
			return src, nil
		}
		put = addIndent(put, firstChild(parent).Column-1)
		i0 = lineOffset(src, lastChild(parent).Line+1)
		i1 = i0
	}

	if value == nil {
		put = nil
	}

	if i0 < 0 {
		// no new line at the end of file
		dst := append([]byte{}, src...)
		if len(dst) > 0 && dst[len(dst)-1] != '\n' {
			dst = append(dst, '\n')
		}
		return append(dst, put...), nil
	}

	dst := make([]byte, 0, len(src)+len(put))
	dst = append(dst, src[:i0]...)
	dst = append(dst, put...)
	if i1 >= 0 {
		dst = append(dst, src[i1:]...)
	}
	return dst, nil
}

// appendKey adds top level key at the end of file
func appendKey(src []byte, key string, value any) ([]byte, error) {
	put, err := Encode(map[string]any{key: value}, 2)
	if err != nil {
		return nil, err
	}

	dst := make([]byte, 0, len(src)+len(put)+1)
	dst = append(dst, src...)
	if l := len(src); l > 0 && src[l-1] != '\n' {
		dst = append(dst, '\n')
	}
	return append(dst, put...), nil
}

func addIndent(src []byte, indent int) (dst []byte) {
	pre := bytes.Repeat([]byte{' '}, indent)
	for len(src) > 0 {
		dst = append(dst, pre...)
		i := bytes.IndexByte(src, '\n') + 1
		if i == 0 {
			return append(dst, src...)
		}
		dst = append(dst, src[:i]...)
		src = src[i:]
	}
	return
}

func lineOffset(b []byte, line int) (offset int) {
	for l := 1; ; l++ {
		if l == line {
			return offset
		}

		i := bytes.IndexByte(b[offset:], '\n') + 1
		if i == 0 {
			return -1
		}
		offset += i
	}
}
