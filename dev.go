package main

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/howeyc/fsnotify"

	"github.com/nf/occ/machine"
	"github.com/nf/occ/tarfs"
)

// devMode boots the archive packed from dir and reboots it with a fresh
// archive whenever something under dir changes.
func devMode(gui, debug bool, dir, label string) error {
	dir = filepath.Clean(dir)
	if fi, err := os.Stat(dir); err != nil {
		return err
	} else if !fi.IsDir() {
		return fmt.Errorf("dev: %s is not a directory", dir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watchTree(watcher, dir); err != nil {
		return err
	}

	var (
		sf     machine.StateFunc
		reboot chan bool
		dv     *debugView
	)
	if debug {
		dv = newDebugView()
		sf = dv.StateFunc
		reboot = dv.reboot
	}
	runner := machine.NewRunner(gui, true, sf)
	if dv != nil {
		dv.r = runner
		log.SetPrefix("")
		log.SetOutput(dv.log)
		go func() {
			if err := dv.Run(); err != nil {
				log.Fatalf("debug: %v", err)
			}
			log.SetOutput(os.Stderr)
			log.SetPrefix("occ: ")
			runner.Quit()
		}()
	}

	archiveCh := make(chan []byte)
	go func() {
		started := false
		build := time.After(1 * time.Millisecond)
		for {
			select {
			case <-build:
				log.Printf("dev: pack %s", dir)
				archive, err := tarfs.Pack(dir)
				if err != nil {
					log.Printf("dev: %v", err)
					break
				}
				if !started {
					log.Printf("dev: start")
					archiveCh <- archive
					started = true
				} else {
					log.Printf("dev: reset")
					runner.Reset(archive)
				}
			case <-reboot:
				build = time.After(0)
			case ev := <-watcher.Event:
				if hidden(dir, ev.Name) || ev.IsAttrib() {
					break
				}
				if ev.IsCreate() {
					if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
						if err := watchTree(watcher, ev.Name); err != nil {
							log.Printf("dev: watcher: %v", err)
						}
					}
				}
				build = time.After(100 * time.Millisecond)
			case err := <-watcher.Error:
				log.Printf("dev: watcher: %v", err)
			}
		}
	}()
	code := runner.Run(machine.Config{Archive: <-archiveCh, Label: label})
	if code != 0 {
		return fmt.Errorf("dev: exit code: %d", code)
	}
	return nil
}

// watchTree watches dir and every directory below it that Pack would
// include.
func watchTree(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Watch(p)
	})
}

// hidden reports whether p, below root, is skipped by Pack.
func hidden(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	for _, elem := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(elem, ".") && elem != "." {
			return true
		}
	}
	return false
}
