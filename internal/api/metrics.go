package api

import (
	"github.com/prometheus/client_golang/prometheus"
)

// rateCollector implements prometheus.Collector, reading the estimator on
// each scrape.
type rateCollector struct {
	srv *Server

	// Per-interface gauges
	ifaceMbps        *prometheus.Desc
	ifaceUtilization *prometheus.Desc
	ifaceUp          *prometheus.Desc

	// Estimator counters
	samplesTotal      *prometheus.Desc
	warmUpsTotal      *prometheus.Desc
	anomaliesTotal    *prometheus.Desc
	evictedTotal      *prometheus.Desc
	interfacesTracked *prometheus.Desc

	// Poller counters
	pollsTotal      *prometheus.Desc
	pollErrorsTotal *prometheus.Desc
}

func newCollector(srv *Server) *rateCollector {
	return &rateCollector{
		srv: srv,

		ifaceMbps: prometheus.NewDesc(
			"routerdash_interface_rate_mbps",
			"Latest estimated throughput per interface in Mbps.",
			[]string{"interface", "direction"}, nil,
		),
		ifaceUtilization: prometheus.NewDesc(
			"routerdash_interface_utilization_percent",
			"Utilization of the busier direction relative to link speed.",
			[]string{"interface"}, nil,
		),
		ifaceUp: prometheus.NewDesc(
			"routerdash_interface_up",
			"1 if the interface reported oper status up at the last poll.",
			[]string{"interface"}, nil,
		),
		samplesTotal: prometheus.NewDesc(
			"routerdash_estimator_samples_total",
			"Total counter samples processed.",
			nil, nil,
		),
		warmUpsTotal: prometheus.NewDesc(
			"routerdash_estimator_warmups_total",
			"Total first samples that produced no rate.",
			nil, nil,
		),
		anomaliesTotal: prometheus.NewDesc(
			"routerdash_estimator_anomalies_total",
			"Total samples absorbed as clock or counter anomalies.",
			[]string{"kind"}, nil,
		),
		evictedTotal: prometheus.NewDesc(
			"routerdash_estimator_evicted_interfaces_total",
			"Total interface states dropped beyond the tracking limit.",
			nil, nil,
		),
		interfacesTracked: prometheus.NewDesc(
			"routerdash_estimator_interfaces",
			"Current number of tracked interfaces.",
			nil, nil,
		),
		pollsTotal: prometheus.NewDesc(
			"routerdash_polls_total",
			"Total completed device polls.",
			[]string{"router"}, nil,
		),
		pollErrorsTotal: prometheus.NewDesc(
			"routerdash_poll_errors_total",
			"Total device and per-interface poll errors.",
			[]string{"router"}, nil,
		),
	}
}

func (c *rateCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.ifaceMbps
	ch <- c.ifaceUtilization
	ch <- c.ifaceUp
	ch <- c.samplesTotal
	ch <- c.warmUpsTotal
	ch <- c.anomaliesTotal
	ch <- c.evictedTotal
	ch <- c.interfacesTracked
	ch <- c.pollsTotal
	ch <- c.pollErrorsTotal
}

func (c *rateCollector) Collect(ch chan<- prometheus.Metric) {
	c.collectInterfaceRates(ch)
	c.collectEstimatorCounters(ch)
	c.collectPollerCounters(ch)
}

func (c *rateCollector) collectInterfaceRates(ch chan<- prometheus.Metric) {
	est := c.srv.est
	for _, id := range est.Interfaces() {
		res, ok := est.Latest(id)
		if !ok {
			continue
		}
		ch <- prometheus.MustNewConstMetric(c.ifaceMbps, prometheus.GaugeValue,
			res.Download, id, "download")
		ch <- prometheus.MustNewConstMetric(c.ifaceMbps, prometheus.GaugeValue,
			res.Upload, id, "upload")
	}

	if c.srv.poller == nil {
		return
	}
	snap := c.srv.poller.Last()
	if snap == nil {
		return
	}
	for _, ir := range snap.Interfaces {
		if ir.Error != "" {
			continue
		}
		up := 0.0
		if ir.Status == "up" {
			up = 1
		}
		ch <- prometheus.MustNewConstMetric(c.ifaceUp, prometheus.GaugeValue, up, ir.Name)
		if ir.SpeedMbps > 0 {
			ch <- prometheus.MustNewConstMetric(c.ifaceUtilization, prometheus.GaugeValue,
				ir.Utilization, ir.Name)
		}
	}
}

func (c *rateCollector) collectEstimatorCounters(ch chan<- prometheus.Metric) {
	d := c.srv.est.Diagnostics()
	ch <- prometheus.MustNewConstMetric(c.samplesTotal, prometheus.CounterValue, float64(d.Samples))
	ch <- prometheus.MustNewConstMetric(c.warmUpsTotal, prometheus.CounterValue, float64(d.WarmUps))
	ch <- prometheus.MustNewConstMetric(c.anomaliesTotal, prometheus.CounterValue,
		float64(d.ClockAnomalies), "clock")
	ch <- prometheus.MustNewConstMetric(c.anomaliesTotal, prometheus.CounterValue,
		float64(d.CounterAnomalies), "counter")
	ch <- prometheus.MustNewConstMetric(c.evictedTotal, prometheus.CounterValue, float64(d.EvictedInterfaces))
	ch <- prometheus.MustNewConstMetric(c.interfacesTracked, prometheus.GaugeValue, float64(d.TrackedInterfaces))
}

func (c *rateCollector) collectPollerCounters(ch chan<- prometheus.Metric) {
	if c.srv.poller == nil {
		return
	}
	info := c.srv.poller.Info()
	ch <- prometheus.MustNewConstMetric(c.pollsTotal, prometheus.CounterValue,
		float64(info.PollCount), info.Router)
	ch <- prometheus.MustNewConstMetric(c.pollErrorsTotal, prometheus.CounterValue,
		float64(info.ErrorCount), info.Router)
}
