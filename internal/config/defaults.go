package config

// DefaultSorterConfig returns the documented sample configuration written to
// disk when no configuration file exists yet. Category names match the
// configuration schema's language.
func DefaultSorterConfig() *SorterConfig {
	cfg := NewSorterConfig()
	cfg.Categories = []Category{
		{Name: "Bilder", Extensions: []string{".jpg", ".png", ".gif", ".bmp", ".svg", ".ico", ".webp"}},
		{Name: "Dokumente", Extensions: []string{".pdf", ".doc", ".docx", ".txt", ".odt", ".rtf"}},
		{Name: "Musik", Extensions: []string{".mp3", ".wav", ".flac", ".ogg", ".m4a", ".wma"}},
		{Name: "Videos", Extensions: []string{".mp4", ".avi", ".mkv", ".mov", ".wmv", ".flv"}},
		{Name: "Archive", Extensions: []string{".zip", ".rar", ".7z", ".tar", ".gz", ".bz2"}},
	}
	cfg.DefaultCategory = DefaultCategoryName
	for _, ext := range []string{".tmp", ".ini", ".log", ".temp"} {
		cfg.ExcludedExtensions[ext] = struct{}{}
	}
	for _, folder := range []string{"temp", ".git", "__pycache__", "node_modules"} {
		cfg.ExcludedFolders[folder] = struct{}{}
	}
	return cfg
}
