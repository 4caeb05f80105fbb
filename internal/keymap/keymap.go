// Package keymap enumerates the editor's command surface and loads/saves
// the user's shortcut bindings as a JSON template, reusing viper (already
// the settings stack's codec) instead of a second parsing library.
package keymap

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/wavecraft/wavecraft/internal/errors"
)

// CommandID is a closed enum of every shortcut-bindable command.
type CommandID string

const (
	CmdUndo              CommandID = "edit.undo"
	CmdRedo              CommandID = "edit.redo"
	CmdCut               CommandID = "edit.cut"
	CmdCopy              CommandID = "edit.copy"
	CmdPaste             CommandID = "edit.paste"
	CmdDelete            CommandID = "edit.delete"
	CmdSelectAll         CommandID = "edit.selectAll"
	CmdPlayPause         CommandID = "transport.playPause"
	CmdStop              CommandID = "transport.stop"
	CmdToggleLoop        CommandID = "transport.toggleLoop"
	CmdAddMarker         CommandID = "regions.addMarker"
	CmdAddRegion         CommandID = "regions.addRegion"
	CmdStripSilence      CommandID = "process.stripSilence"
	CmdNormalise         CommandID = "process.normalise"
	CmdFadeIn            CommandID = "process.fadeIn"
	CmdFadeOut           CommandID = "process.fadeOut"
	CmdRenderSelection   CommandID = "process.renderSelection"
	CmdOpenPluginChain   CommandID = "plugins.openChain"
	CmdScanPlugins       CommandID = "plugins.scan"
	CmdFileNew           CommandID = "file.new"
	CmdFileOpen          CommandID = "file.open"
	CmdFileSave          CommandID = "file.save"
	CmdFileSaveAs        CommandID = "file.saveAs"
	CmdFileClose         CommandID = "file.close"
	CmdDocumentNext      CommandID = "document.next"
	CmdDocumentPrevious  CommandID = "document.previous"
)

// AllCommands lists every CommandID, used to seed a default keymap and to
// map a loaded file's (lower-cased) keys back to command IDs. Load does not
// reject keys that name no known command; they are kept as-is.
var AllCommands = []CommandID{
	CmdUndo, CmdRedo, CmdCut, CmdCopy, CmdPaste, CmdDelete, CmdSelectAll,
	CmdPlayPause, CmdStop, CmdToggleLoop,
	CmdAddMarker, CmdAddRegion,
	CmdStripSilence, CmdNormalise, CmdFadeIn, CmdFadeOut, CmdRenderSelection,
	CmdOpenPluginChain, CmdScanPlugins,
	CmdFileNew, CmdFileOpen, CmdFileSave, CmdFileSaveAs, CmdFileClose,
	CmdDocumentNext, CmdDocumentPrevious,
}

// Template maps each command to a chord string such as "Ctrl+Z".
type Template map[CommandID]string

// Default returns an empty binding for every known command; callers
// populate it with the host platform's conventional chords.
func Default() Template {
	t := make(Template, len(AllCommands))
	for _, c := range AllCommands {
		t[c] = ""
	}
	return t
}

// Load reads a JSON keymap template from path via a dedicated viper
// instance (the settings stack's parser, pointed at a different file
// rather than the global config singleton).
func Load(path string) (Template, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, errors.New(err).Category(errors.CategoryConfig).
			Context("path", path).Build()
	}

	// viper lower-cases keys and nests them on "."; AllKeys flattens them
	// back to dotted paths, which are matched case-insensitively here.
	byKey := make(map[string]CommandID, len(AllCommands))
	for _, c := range AllCommands {
		byKey[strings.ToLower(string(c))] = c
	}

	t := Default()
	for _, key := range v.AllKeys() {
		id, ok := byKey[key]
		if !ok {
			id = CommandID(key)
		}
		t[id] = v.GetString(key)
	}
	return t, nil
}

// Save writes t as JSON to path via a temp-file-then-rename sequence.
func Save(path string, t Template) error {
	v := viper.New()
	v.SetConfigType("json")
	for id, chord := range t {
		v.Set(string(id), chord)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp")
	if err != nil {
		return errors.New(err).Category(errors.CategoryFileIO).Build()
	}
	tmp.Close()

	if err := v.WriteConfigAs(tmp.Name()); err != nil {
		_ = os.Remove(tmp.Name())
		return errors.New(err).Category(errors.CategoryEncodeFailed).Build()
	}
	return os.Rename(tmp.Name(), path)
}
