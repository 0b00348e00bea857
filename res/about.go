// Package res holds static content shown by the desktop UI.
package res

// AboutContent is the Markdown shown in the About dialog.
const AboutContent = `A desktop music player built with Go and Fyne.

**Features:**
- Play MP3, FLAC and WAV files
- A play queue with shuffle, repeat all and repeat one
- A library of artists, albums and genres read from file tags
- Play history and liked tracks kept per profile

Your library, queue and history live in a local SQLite database.
`
