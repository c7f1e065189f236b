package config

// Merge overlays hi onto lo: every non-nil field of hi wins.
func Merge(lo, hi FileConfig) FileConfig {
	out := lo
	pick(&out.Engine, hi.Engine)
	pick(&out.Library, hi.Library)
	pick(&out.Recorders, hi.Recorders)
	pick(&out.Histograms, hi.Histograms)
	pick(&out.Carve, hi.Carve)
	pick(&out.ContextWindow, hi.ContextWindow)
	pick(&out.MaxBytes, hi.MaxBytes)
	pick(&out.Threads, hi.Threads)
	pick(&out.Include, hi.Include)
	pick(&out.Exclude, hi.Exclude)
	pick(&out.Format, hi.Format)
	pick(&out.NoColor, hi.NoColor)
	pick(&out.NoCache, hi.NoCache)
	pick(&out.LogLevel, hi.LogLevel)
	pick(&out.LogFormat, hi.LogFormat)
	pick(&out.MetricsAddr, hi.MetricsAddr)
	pick(&out.Archives, hi.Archives)
	pick(&out.MaxArchiveBytes, hi.MaxArchiveBytes)
	pick(&out.MaxEntries, hi.MaxEntries)
	pick(&out.MaxDepth, hi.MaxDepth)
	pick(&out.ArchiveTimeBudget, hi.ArchiveTimeBudget)
	return out
}

func pick[T any](dst **T, v *T) {
	if v != nil {
		*dst = v
	}
}
