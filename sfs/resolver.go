// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sfs

import "strings"

// normalizePath validates that path is absolute and reduces it to
// canonical form: "." components dropped, ".." pops a component
// textually (no filesystem lookup), repeated/leading/trailing slashes
// collapsed. The result always starts with "/"; "/" itself is the
// normalized form of the root (§4.6).
func normalizePath(path string) (string, error) {
	if path == "" || path[0] != '/' {
		return "", newError("resolve", path, KindInval)
	}
	var out []string
	for _, part := range strings.Split(path, "/") {
		switch part {
		case "", ".":
			continue
		case "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		default:
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return "/", nil
	}
	return "/" + strings.Join(out, "/"), nil
}

// splitFirstComponent splits a normalized absolute path into its
// first component and the normalized absolute remainder (which is
// "/" when the first component was the last one).
func splitFirstComponent(normalized string) (first, rest string) {
	trimmed := strings.TrimPrefix(normalized, "/")
	idx := strings.IndexByte(trimmed, '/')
	if idx < 0 {
		return trimmed, "/"
	}
	return trimmed[:idx], "/" + trimmed[idx+1:]
}

// resolve walks path from the root, following symlinks at every
// non-final component, and at the final component too when
// followFinal is set (resolve vs. lresolve, §4.6).
func (fs *FS) resolve(op, path string, followFinal bool) (uint32, error) {
	normalized, err := normalizePath(path)
	if err != nil {
		return 0, newError(op, path, KindInval)
	}

	if followFinal {
		if ino, ok := fs.cache.lookup(normalized); ok {
			return ino, nil
		}
	}

	depthBudget := maxSymlinkDepth
	current := RootInode
	parentPath := "" // absolute path of `current`, "" denotes root
	remaining := normalized

	for remaining != "/" {
		comp, rest := splitFirstComponent(remaining)

		dirInode := fs.readInode(current)
		if !dirInode.isDir() {
			return 0, newError(op, path, KindNotDir)
		}
		childIno, ok := fs.dirLookup(&dirInode, comp)
		if !ok {
			return 0, newError(op, path, KindNotFound)
		}
		childInode := fs.readInode(childIno)
		isFinal := rest == "/"

		if childInode.isLnk() && (followFinal || !isFinal) {
			if depthBudget == 0 {
				return 0, newError(op, path, KindLoop)
			}
			depthBudget--

			target, terr := fs.readSymlinkTarget(&childInode)
			if terr != nil {
				return 0, terr
			}

			// Either way the spliced path is absolute, so the walk
			// restarts from the root.
			var spliced string
			if strings.HasPrefix(target, "/") {
				spliced = target
			} else {
				spliced = parentPath + "/" + target
			}
			current = RootInode
			parentPath = ""
			splicedNorm, nerr := normalizePath(spliced)
			if nerr != nil {
				return 0, newError(op, path, KindInval)
			}
			if splicedNorm == "/" {
				remaining = rest
			} else {
				remaining = splicedNorm + rest
			}
			continue
		}

		parentPath = parentPath + "/" + comp
		current = childIno
		remaining = rest
	}
	if followFinal {
		fs.cache.store(normalized, current)
	}
	return current, nil
}

// resolveParent resolves the parent directory of path (following all
// symlinks) and returns it along with path's final, normalized
// component name. It does not look up the final component itself —
// callers that need to know whether it exists call dirLookup on the
// returned parent inode.
func (fs *FS) resolveParent(op, path string) (parentIno uint32, name string, err error) {
	normalized, err := normalizePath(path)
	if err != nil {
		return 0, "", newError(op, path, KindInval)
	}
	if normalized == "/" {
		return 0, "", newError(op, path, KindInval)
	}
	idx := strings.LastIndexByte(normalized, '/')
	parentPath := normalized[:idx]
	if parentPath == "" {
		parentPath = "/"
	}
	name = normalized[idx+1:]
	if len(name) == 0 || len(name) > MaxNameLen {
		return 0, "", newError(op, path, KindInval)
	}
	parentIno, err = fs.resolve(op, parentPath, true)
	if err != nil {
		return 0, "", err
	}
	return parentIno, name, nil
}

// readSymlinkTarget reads a symlink inode's inline target bytes via
// its block map.
func (fs *FS) readSymlinkTarget(in *inode) (string, error) {
	buf := make([]byte, in.Size)
	if _, err := fs.readFileData(in, 0, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
