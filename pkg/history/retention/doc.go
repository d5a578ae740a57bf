// Package retention prunes export history and produced files.
//
// A Pruner deletes history jobs older than MaxAge and, when MaxJobs is
// set, the oldest jobs beyond that count. It can archive the affected jobs
// as a JSON export before deleting them. When OutputDir is set it also
// removes exported files older than MaxAge and temporary files abandoned by
// interrupted deliveries.
//
// A Scheduler runs the pruner on a cron schedule (robfig/cron standard
// syntax, for example "0 3 * * *").
package retention
