package ui

import (
	"errors"
	"os/exec"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	fynestorage "fyne.io/fyne/v2/storage"
	"github.com/mitchellh/go-homedir"
	"github.com/ncruces/zenity"
	log "github.com/sirupsen/logrus"
)

// chooseFolder asks the user for a folder and passes the choice to onChosen.
// Cancelling calls nothing.
// Priority order: 1) kdialog (KDE), 2) Zenity (GTK), 3) Fyne (fallback)
func (mw *MainWindow) chooseFolder(title, startPath string, onChosen func(string)) {
	if startPath == "" {
		startPath = homeFolder()
	}

	go func() {
		folder, handled := mw.openNativeFolderDialog(title, startPath)
		if !handled {
			mw.openFyneFolderDialog(startPath, onChosen)
			return
		}
		if folder != "" {
			onChosen(folder)
		}
	}()
}

// openNativeFolderDialog tries the desktop's own folder pickers. It reports
// handled=false when none of them could be shown.
func (mw *MainWindow) openNativeFolderDialog(title, startPath string) (string, bool) {
	if isKDialogAvailable() {
		folder, err := openKDialogFolder(title, startPath)
		if err == nil {
			return folder, true
		}
		// If kdialog fails, continue to other options
		log.WithError(err).Debug("kdialog failed")
	}

	if zenity.IsAvailable() {
		folder, err := zenity.SelectFile(
			zenity.Title(title),
			zenity.Filename(startPath),
			zenity.Directory(),
		)
		if errors.Is(err, zenity.ErrCanceled) {
			return "", true
		}
		if err == nil {
			return folder, true
		}
		log.WithError(err).Debug("zenity failed")
	}
	return "", false
}

// openFyneFolderDialog is a fallback that uses the Fyne folder dialog
func (mw *MainWindow) openFyneFolderDialog(startPath string, onChosen func(string)) {
	folderDialog := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil {
			dialog.ShowError(err, mw.window)
			return
		}
		if uri == nil {
			return // User cancelled
		}
		onChosen(uri.Path())
	}, mw.window)

	// Set the starting location
	if location, err := fynestorage.ListerForURI(fynestorage.NewFileURI(startPath)); err == nil {
		folderDialog.SetLocation(location)
	}

	folderDialog.Resize(fyne.NewSize(700, 500))
	folderDialog.Show()
}

// isKDialogAvailable checks for the KDE dialog utility
func isKDialogAvailable() bool {
	_, err := exec.LookPath("kdialog")
	return err == nil
}

// openKDialogFolder opens a folder picker using kdialog
func openKDialogFolder(title, startPath string) (string, error) {
	cmd := exec.Command("kdialog", "--getexistingdirectory", startPath, "--title", title)
	output, err := cmd.Output()
	if err != nil {
		// Exit code 1 means the user cancelled
		var exitError *exec.ExitError
		if errors.As(err, &exitError) && exitError.ExitCode() == 1 {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

// homeFolder returns the user's home directory, or "." if it is unknown
func homeFolder() string {
	dir, err := homedir.Dir()
	if err != nil {
		return "."
	}
	return dir
}
