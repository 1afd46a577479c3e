package logger

// LogClassification logs the outcome of one classification call
func LogClassification(shortcode, category string, err error) {
	fields := map[string]interface{}{
		"shortcode": shortcode,
		"category":  category,
	}

	log := GetLogger().WithFields(fields)
	if err != nil {
		log.WithError(err).Warn("Classification failed")
	} else {
		log.Info("Post classified")
	}
}

// LogPersist logs an upsert outcome
func LogPersist(shortcode, category string, saved bool, err error) {
	fields := map[string]interface{}{
		"shortcode": shortcode,
		"category":  category,
		"saved":     saved,
	}

	log := GetLogger().WithFields(fields)
	if err != nil {
		log.WithError(err).Error("Persist failed")
	} else if saved {
		log.Info("Post persisted")
	} else {
		log.Warn("Post not persisted")
	}
}
