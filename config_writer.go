// config_writer.go: Template loading and atomic writing of wp-config.php
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package wpconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/agilira/go-errors"
	"github.com/agilira/go-timecache"
	"golang.org/x/sys/unix"
)

// DefaultConfigMode is the mode of a newly created wp-config.php.
const DefaultConfigMode os.FileMode = 0640

// LoadTemplate reads configPath when it exists and samplePath otherwise.
func LoadTemplate(configPath, samplePath string) (Template, error) {
	content, found, err := readIfExists(configPath)
	if err != nil {
		return Template{}, err
	}
	if found {
		return Template{Path: configPath, Content: content, Existed: true}, nil
	}

	content, found, err = readIfExists(samplePath)
	if err != nil {
		return Template{}, err
	}
	if found {
		return Template{Path: samplePath, Content: content, Existed: false}, nil
	}

	return Template{}, errors.New(ErrCodeMissingTemplate,
		fmt.Sprintf("neither %s nor %s exists", configPath, samplePath)).
		WithContext("config_path", configPath).
		WithContext("sample_path", samplePath)
}

func readIfExists(path string) (string, bool, error) {
	// #nosec G304 -- paths come from validated Options
	data, err := os.ReadFile(path)
	if err == nil {
		return string(data), true, nil
	}
	if os.IsNotExist(err) {
		return "", false, nil
	}
	return "", false, errors.Wrap(err, ErrCodeIOError, "failed to read configuration template").
		WithContext("path", path)
}

// WriteConfigFile replaces path with content through a temporary file in
// the same directory and a rename, so readers never see a partial file.
// An existing file keeps its mode and, when permitted, its owner. When path
// is a symlink the file it points to is replaced and the link is kept.
func WriteConfigFile(path, content string) error {
	path, err := resolveConfigLink(path)
	if err != nil {
		return err
	}

	mode := DefaultConfigMode
	uid, gid := -1, -1
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err == nil {
		mode = os.FileMode(st.Mode & 0777)
		uid, gid = int(st.Uid), int(st.Gid)
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	tempPath := filepath.Join(dir, "."+base+".tmp."+fmt.Sprintf("%d", timecache.CachedTimeNano()))

	if err := os.WriteFile(tempPath, []byte(content), mode); err != nil {
		return errors.Wrap(err, ErrCodeIOError, "failed to write temp file").
			WithContext("path", tempPath)
	}
	// WriteFile is subject to the umask
	if err := os.Chmod(tempPath, mode); err != nil {
		_ = os.Remove(tempPath)
		return errors.Wrap(err, ErrCodeIOError, "failed to set mode on temp file").
			WithContext("path", tempPath)
	}
	if uid >= 0 {
		// only root may give the file away; anyone else keeps their own
		_ = os.Lchown(tempPath, uid, gid)
	}

	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return errors.Wrap(err, ErrCodeIOError, "failed to rename temp file").
			WithContext("path", path)
	}
	return nil
}

// resolveConfigLink returns the file a symlinked path points to, or path
// itself when it is not a symlink.
func resolveConfigLink(path string) (string, error) {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil || st.Mode&unix.S_IFMT != unix.S_IFLNK {
		return path, nil
	}
	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", errors.Wrap(err, ErrCodeIOError, "failed to resolve configuration symlink").
			WithContext("path", path)
	}
	return target, nil
}
