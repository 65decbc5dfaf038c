package scorm

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/SAP-F-2025/quiz-engine/internal/models"
)

// DefaultPlayerScript is where the player bundle sits inside a package
// unless configured otherwise.
const DefaultPlayerScript = "lib/quiz-player.esm.js"

// LauncherOptions controls the generated SCO entry page.
type LauncherOptions struct {
	// PlayerScript is the package path of the ES module exporting QuizPlayer.
	PlayerScript string
	// StyleSheet is linked when set.
	StyleSheet string
	// Title overrides the quiz title.
	Title string
}

type launcherData struct {
	Title        string
	StyleSheet   string
	PlayerImport string
	DataFile     string
	Quiz         *models.Quiz
}

// The quiz is embedded as a fallback for LMS players that block fetch on
// packaged files.
var launcherTemplate = template.Must(template.New("launcher").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
body { margin: 0; font-family: sans-serif; background-color: #f0f4f8; }
#root { max-width: 900px; margin: 20px auto; }
.quiz-status { text-align: center; padding: 20px; }
</style>
{{if .StyleSheet}}<link rel="stylesheet" href="{{.StyleSheet}}">
{{end}}<script type="importmap">
{"imports": {"react": "https://esm.sh/react@^19.1.0", "react-dom/client": "https://esm.sh/react-dom@^19.1.0/client"}}
</script>
</head>
<body>
<div id="root"><p class="quiz-status">Loading quiz...</p></div>
<script type="module">
import React from "react";
import ReactDOM from "react-dom/client";
import { QuizPlayer } from {{.PlayerImport}};

const embedded = {{.Quiz}};
const root = document.getElementById("root");
let app = null;

function showStatus(text) {
  if (app) {
    app.unmount();
    app = null;
  }
  const p = document.createElement("p");
  p.className = "quiz-status";
  p.textContent = text;
  root.replaceChildren(p);
}

async function loadQuiz() {
  try {
    const res = await fetch({{.DataFile}});
    if (res.ok) {
      return await res.json();
    }
  } catch (err) {
    console.warn("quiz data not reachable, using embedded copy", err);
  }
  return embedded;
}

const quiz = await loadQuiz();
root.replaceChildren();
app = ReactDOM.createRoot(root);
app.render(React.createElement(QuizPlayer, {
  quizConfig: quiz,
  onQuizComplete: () => showStatus("Quiz completed. You may close this window."),
  onExitQuiz: () => showStatus("Quiz exited. You may close this window."),
}));
</script>
</body>
</html>
`))

// Launcher renders the HTML page the manifest names as the SCO. It loads
// quiz_data.json and mounts the player bundle on it.
func Launcher(q *models.Quiz, opts LauncherOptions) ([]byte, error) {
	script := opts.PlayerScript
	if script == "" {
		script = DefaultPlayerScript
	}
	title := opts.Title
	if title == "" {
		title = q.Title
	}
	if title == "" {
		title = "Quiz"
	}

	var buf bytes.Buffer
	err := launcherTemplate.Execute(&buf, launcherData{
		Title:        title,
		StyleSheet:   opts.StyleSheet,
		PlayerImport: moduleSpecifier(script),
		DataFile:     QuizDataFile,
		Quiz:         q,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render launcher: %w", err)
	}
	return buf.Bytes(), nil
}

// moduleSpecifier makes a package path importable: bare names would be
// resolved through the import map.
func moduleSpecifier(path string) string {
	if strings.HasPrefix(path, "./") || strings.HasPrefix(path, "../") ||
		strings.HasPrefix(path, "/") || strings.Contains(path, "://") {
		return path
	}
	return "./" + path
}
