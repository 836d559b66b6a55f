package verify

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	agentJMXImage  = "gcr.io/datadoghq/agent:latest-jmx"
	tomcatJMXPort  = "9012"
	blogURL        = "http://www.datadog.com/blog/"
	logLevelRule   = "DEBUG|INFO|WARN"
	adInstances    = "com.datadoghq.ad.instances"
	adInitConfigs  = "com.datadoghq.ad.init_configs"
	datadogNetwork = "dd-net"
)

var (
	siteRe = regexp.MustCompile(`DD_SITE\s*=\s*datadoghq\.com`)
	// Host and container side of a log volume; the two must name the same path.
	logMountRe = regexp.MustCompile(`(/root/logs(?:/output\.log)?)\s*:\s*(/root/logs(?:/output\.log)?)(?:\s*:\s*\w+)?`)

	requiredBeanExcludes = []string{`java\.lang:type=Runtime`, `java\.lang:type=Compilation`}
	forbiddenBeanExclude = "Catalina:type=ThreadPool"
)

// apiKeyConfigured: problem 1.
func (c *checkers) apiKeyConfigured(context.Context) Verdict {
	f, err := os.Open(c.paths.DockerEnv)
	if err != nil {
		return Fail
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if strings.HasPrefix(strings.TrimSpace(sc.Text()), "DD_API_KEY") {
			return Pass
		}
	}
	return Fail
}

// siteConfigured: problem 2.
func (c *checkers) siteConfigured(context.Context) Verdict {
	data, err := os.ReadFile(c.paths.Challenge1Compose)
	if err != nil {
		return Fail
	}
	return verdict(siteRe.Match(data))
}

// clockInSync: problem 3.
func (c *checkers) clockInSync(ctx context.Context) Verdict {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.paths.ClockURL, http.NoBody)
	if err != nil {
		return Fail
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return Fail
	}
	_ = resp.Body.Close()

	remote, err := http.ParseTime(resp.Header.Get("Date"))
	if err != nil {
		return Fail
	}
	skew := c.now().Sub(remote)
	if skew < 0 {
		skew = -skew
	}
	return verdict(skew <= c.maxSkew)
}

// customCheckURL: problem 4.
func (c *checkers) customCheckURL(context.Context) Verdict {
	f, err := os.Open(c.paths.CustomCheckConf)
	if err != nil {
		return Fail
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if strings.Contains(line, "url") && strings.Contains(line, blogURL) {
			return Pass
		}
	}
	return Fail
}

// logCollection: problem 5.
func (c *checkers) logCollection(context.Context) Verdict {
	data, err := os.ReadFile(c.paths.Challenge1Compose)
	if err != nil || !hasLogMount(string(data)) {
		return Fail
	}

	var doc composeFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Fail
	}
	if doc.Services["datadog-agent"].Environment["DD_LOGS_ENABLED"] != "true" {
		return Fail
	}

	conf, err := os.ReadFile(c.paths.CustomLogConf)
	if err != nil {
		return Fail
	}
	rule := string(conf)
	return verdict(strings.Contains(rule, logLevelRule) && !strings.Contains(rule, "(?i)"))
}

func hasLogMount(compose string) bool {
	for _, m := range logMountRe.FindAllStringSubmatch(compose, -1) {
		if strings.HasPrefix(m[2], m[1]) {
			return true
		}
	}
	return false
}

// redisAutodiscovery: problem 6.
func (c *checkers) redisAutodiscovery(context.Context) Verdict {
	doc, err := readCompose(c.paths.Challenge2Compose)
	if err != nil {
		return Fail
	}
	redis, ok := doc.Services["redis"]
	if !ok {
		return Fail
	}
	password := redis.Environment["REDIS_PASSWORD"]
	if password == "" {
		return Fail
	}

	var instances []struct {
		Password string `json:"password"`
	}
	if err := json.Unmarshal([]byte(redis.Labels[adInstances]), &instances); err != nil || len(instances) == 0 {
		return Fail
	}
	if instances[0].Password != password {
		return Fail
	}
	return verdict(redis.Networks.has(datadogNetwork))
}

// tomcatJMX: problem 7.
func (c *checkers) tomcatJMX(context.Context) Verdict {
	doc, err := readCompose(c.paths.Challenge2Compose)
	if err != nil {
		return Fail
	}
	if doc.Services["datadog-agent"].Image != agentJMXImage {
		return Fail
	}
	labels := doc.Services["tomcat"].Labels

	var instances []struct {
		Port json.RawMessage `json:"port"`
	}
	if err := json.Unmarshal([]byte(labels[adInstances]), &instances); err != nil || len(instances) == 0 {
		return Fail
	}
	if strings.Trim(string(instances[0].Port), `"`) != tomcatJMXPort {
		return Fail
	}

	var initConfigs []struct {
		Conf []struct {
			Exclude struct {
				BeanRegex string `yaml:"bean_regex"`
			} `yaml:"exclude"`
		} `yaml:"conf"`
	}
	if err := yaml.Unmarshal([]byte(labels[adInitConfigs]), &initConfigs); err != nil ||
		len(initConfigs) == 0 || len(initConfigs[0].Conf) == 0 {
		return Fail
	}

	parts := make(map[string]struct{})
	for _, p := range strings.Split(strings.Trim(initConfigs[0].Conf[0].Exclude.BeanRegex, "|"), "|") {
		if p = strings.TrimSpace(p); p != "" {
			parts[p] = struct{}{}
		}
	}
	for _, req := range requiredBeanExcludes {
		if _, ok := parts[req]; !ok {
			return Fail
		}
	}
	for p := range parts {
		if strings.Contains(p, forbiddenBeanExclude) {
			return Fail
		}
	}
	return Pass
}
