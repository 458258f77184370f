package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied in order by Migrate.  Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id       BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		email         VARCHAR(255)    NOT NULL,
		password_hash VARCHAR(255)    NOT NULL,
		first_name    VARCHAR(100)    NOT NULL DEFAULT '',
		last_name     VARCHAR(100)    NOT NULL DEFAULT '',
		role          ENUM('USER','ADMIN') NOT NULL DEFAULT 'USER',
		is_active     TINYINT(1)      NOT NULL DEFAULT 1,
		created_at    DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at    DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (user_id),
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		user_id    BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64)        NOT NULL,
		expires_at DATETIME        NOT NULL,
		revoked_at DATETIME        NULL,
		created_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_refresh_token_hash (token_hash),
		KEY idx_refresh_user (user_id),
		CONSTRAINT fk_refresh_user FOREIGN KEY (user_id) REFERENCES users (user_id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS movies (
		movie_id       BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		title          VARCHAR(255)    NOT NULL,
		release_year   INT             NULL,
		duration       INT             NULL,
		poster_url     VARCHAR(512)    NULL,
		average_rating DECIMAL(3,1)    NULL,
		review_count   INT UNSIGNED    NOT NULL DEFAULT 0,
		view_count     BIGINT UNSIGNED NOT NULL DEFAULT 0,
		created_at     DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (movie_id),
		KEY idx_movies_views (view_count),
		KEY idx_movies_rating (average_rating)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS reviews (
		review_id     BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		user_id       BIGINT UNSIGNED NOT NULL,
		movie_id      BIGINT UNSIGNED NOT NULL,
		rating        TINYINT UNSIGNED NOT NULL,
		review_text   TEXT            NOT NULL,
		date_posted   DATETIME        NOT NULL,
		last_modified DATETIME        NULL,
		PRIMARY KEY (review_id),
		UNIQUE KEY uq_reviews_user_movie (user_id, movie_id),
		KEY idx_reviews_movie (movie_id),
		CONSTRAINT chk_reviews_rating CHECK (rating BETWEEN 1 AND 10),
		CONSTRAINT fk_reviews_user FOREIGN KEY (user_id) REFERENCES users (user_id) ON DELETE CASCADE,
		CONSTRAINT fk_reviews_movie FOREIGN KEY (movie_id) REFERENCES movies (movie_id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS review_likes (
		user_id    BIGINT UNSIGNED NOT NULL,
		review_id  BIGINT UNSIGNED NOT NULL,
		created_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (user_id, review_id),
		KEY idx_review_likes_review (review_id),
		CONSTRAINT fk_likes_user FOREIGN KEY (user_id) REFERENCES users (user_id) ON DELETE CASCADE,
		CONSTRAINT fk_likes_review FOREIGN KEY (review_id) REFERENCES reviews (review_id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS watchlist (
		watchlist_id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		user_id      BIGINT UNSIGNED NOT NULL,
		movie_id     BIGINT UNSIGNED NOT NULL,
		status       ENUM('to-watch','watching','completed') NOT NULL DEFAULT 'to-watch',
		added_date   DATETIME        NOT NULL,
		PRIMARY KEY (watchlist_id),
		UNIQUE KEY uq_watchlist_user_movie (user_id, movie_id),
		CONSTRAINT fk_watchlist_user FOREIGN KEY (user_id) REFERENCES users (user_id) ON DELETE CASCADE,
		CONSTRAINT fk_watchlist_movie FOREIGN KEY (movie_id) REFERENCES movies (movie_id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS events (
		event_id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		host_id          BIGINT UNSIGNED NOT NULL,
		movie_id         BIGINT UNSIGNED NOT NULL,
		event_date       DATETIME        NOT NULL,
		max_participants INT UNSIGNED    NOT NULL,
		location         VARCHAR(255)    NOT NULL DEFAULT '',
		description      TEXT            NOT NULL,
		status           ENUM('scheduled','cancelled','completed') NOT NULL DEFAULT 'scheduled',
		created_at       DATETIME        NOT NULL,
		PRIMARY KEY (event_id),
		KEY idx_events_host_date (host_id, event_date),
		KEY idx_events_date (event_date),
		CONSTRAINT chk_events_capacity CHECK (max_participants >= 1),
		CONSTRAINT fk_events_host FOREIGN KEY (host_id) REFERENCES users (user_id) ON DELETE CASCADE,
		CONSTRAINT fk_events_movie FOREIGN KEY (movie_id) REFERENCES movies (movie_id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS event_participants (
		event_id    BIGINT UNSIGNED NOT NULL,
		user_id     BIGINT UNSIGNED NOT NULL,
		joined_at   DATETIME        NOT NULL,
		rsvp_status VARCHAR(16)     NOT NULL DEFAULT 'attending',
		PRIMARY KEY (event_id, user_id),
		KEY idx_participants_user (user_id),
		CONSTRAINT fk_participants_event FOREIGN KEY (event_id) REFERENCES events (event_id) ON DELETE CASCADE,
		CONSTRAINT fk_participants_user FOREIGN KEY (user_id) REFERENCES users (user_id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	"CREATE TABLE IF NOT EXISTS audit_log (" + `
		log_id      BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		admin_id    BIGINT UNSIGNED NOT NULL,
		action_type VARCHAR(32)     NOT NULL,
		table_name  VARCHAR(64)     NOT NULL,
		record_id   BIGINT UNSIGNED NOT NULL,
		details     TEXT            NOT NULL,
		` + "`timestamp`" + ` DATETIME NOT NULL,
		PRIMARY KEY (log_id),
		KEY idx_audit_admin (admin_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing table.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
