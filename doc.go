/*
	Project: Tutorboard - whiteboard lessons checked as students draw.

	Layout:
	- core/whiteboard: command sanitizing, spec evaluation, attempt scoring & recording
	- storage/database: attempt repositories (PostgreSQL via sqlx, in-memory)
	- apps/api: HTTP API (echo)
	- apps/admin: migrations & offline sanitize/score CLI
*/
package tutorboard

/*
TODO: per step stats endpoint (pass rate, attempts until pass) out of the attempt table
TODO: admin: bulk re-score of recorded attempts after a spec change
*/
