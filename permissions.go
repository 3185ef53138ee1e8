// permissions.go: Ownership and mode fix-up of the web root
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package wpconfig

import (
	"fmt"
	"io/fs"
	"os"
	"os/user"
	"path/filepath"
	"strconv"

	"github.com/agilira/go-errors"
)

// Modes applied by the permission fixer: owner full, group read, others none.
const (
	DefaultDirMode  os.FileMode = 0750
	DefaultFileMode os.FileMode = 0640
)

// PermissionFixer hands everything below Root to Account. Root itself is
// left alone.
type PermissionFixer struct {
	Root     string
	Account  string
	DirMode  os.FileMode
	FileMode os.FileMode
}

// PathFailure is a path the fixer could not update.
type PathFailure struct {
	Path string `yaml:"path"`
	Err  string `yaml:"error"`
}

// PermissionReport summarizes a Fix run.
type PermissionReport struct {
	UID         int           `yaml:"uid"`
	GID         int           `yaml:"gid"`
	Directories int           `yaml:"directories"`
	Files       int           `yaml:"files"`
	Failures    []PathFailure `yaml:"failures,omitempty"`
}

// NewPermissionFixer returns a fixer with the default modes.
func NewPermissionFixer(root, account string) *PermissionFixer {
	return &PermissionFixer{
		Root:     root,
		Account:  account,
		DirMode:  DefaultDirMode,
		FileMode: DefaultFileMode,
	}
}

// Fix walks Root without following symlinks. Per-path failures are
// collected in the report and summarized in an ErrCodePermission error;
// whether that error is fatal is up to the caller.
func (p *PermissionFixer) Fix() (*PermissionReport, error) {
	uid, gid, err := lookupAccount(p.Account)
	if err != nil {
		return nil, err
	}

	report := &PermissionReport{UID: uid, GID: gid}
	walkErr := filepath.WalkDir(p.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == p.Root {
				return err
			}
			report.Failures = append(report.Failures, PathFailure{Path: path, Err: err.Error()})
			return nil
		}
		if path == p.Root {
			return nil
		}

		if chErr := os.Lchown(path, uid, gid); chErr != nil {
			report.Failures = append(report.Failures, PathFailure{Path: path, Err: chErr.Error()})
		}

		switch {
		case d.Type()&fs.ModeSymlink != 0:
			// symlink modes are meaningless on linux
		case d.IsDir():
			report.Directories++
			p.chmod(report, path, p.DirMode)
		default:
			report.Files++
			p.chmod(report, path, p.FileMode)
		}
		return nil
	})
	if walkErr != nil {
		return report, errors.Wrap(walkErr, ErrCodePermission, "failed to walk web root").
			WithContext("root", p.Root)
	}

	if n := len(report.Failures); n > 0 {
		return report, errors.New(ErrCodePermission,
			fmt.Sprintf("%d path(s) under %s could not be updated, first: %s: %s",
				n, p.Root, report.Failures[0].Path, report.Failures[0].Err)).
			WithContext("root", p.Root)
	}
	return report, nil
}

func (p *PermissionFixer) chmod(report *PermissionReport, path string, mode os.FileMode) {
	if err := os.Chmod(path, mode); err != nil {
		report.Failures = append(report.Failures, PathFailure{Path: path, Err: err.Error()})
	}
}

func lookupAccount(account string) (int, int, error) {
	u, err := user.Lookup(account)
	if err != nil {
		return 0, 0, errors.Wrap(err, ErrCodePermission, "unknown service account").
			WithContext("account", account)
	}
	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return 0, 0, errors.Wrap(err, ErrCodePermission, "non-numeric uid").
			WithContext("account", account)
	}
	gid, err := strconv.Atoi(u.Gid)
	if err != nil {
		return 0, 0, errors.Wrap(err, ErrCodePermission, "non-numeric gid").
			WithContext("account", account)
	}
	return uid, gid, nil
}
