package seo

import "fmt"

const (
	blockAllRobots = "User-agent: *\nDisallow: /\n"

	liveRobotsFormat = "User-agent: *\nDisallow: /preview\nDisallow: /admin\nDisallow: /api\nSitemap: %s/sitemap.xml\n"
)

// RobotsTxt returns the robots.txt body for a host served at origin.
func RobotsTxt(host, origin string) string {
	if IsPreview(host) {
		return blockAllRobots
	}
	return fmt.Sprintf(liveRobotsFormat, origin)
}

// BlockAllRobots is the body served when robots.txt cannot be generated.
func BlockAllRobots() string { return blockAllRobots }
