package scan

import (
	"context"
	"iter"
	"net/netip"

	"golang.org/x/sync/errgroup"
)

// portJob 单个(主机,端口)的扫描任务,ICMP任务的port为0
type portJob struct {
	ip   netip.Addr
	port uint16
}

// record 一个任务的结果,由收集协程按(主机,端口)合并
type record struct {
	ip      netip.Addr
	port    uint16
	outcome Outcome
}

// hostJobs 每个主机一个任务
func hostJobs(hosts []netip.Addr) iter.Seq[portJob] {
	return func(yield func(portJob) bool) {
		for _, ip := range hosts {
			if !yield(portJob{ip: ip}) {
				return
			}
		}
	}
}

// portJobs 主机在外层端口在内层,保证提交顺序稳定;任务在消费时才生成
func portJobs(hosts []netip.Addr, ports []uint16) iter.Seq[portJob] {
	return func(yield func(portJob) bool) {
		for _, ip := range hosts {
			for _, port := range ports {
				if !yield(portJob{ip: ip, port: port}) {
					return
				}
			}
		}
	}
}

// fanOut 生产者按顺序把任务送入jobChan,固定数量的消费者执行probe,
// 结果通过通道交给唯一的收集协程调用collect,所以collect不需要加锁.
// 所有任务完成后才返回;ctx被取消时返回ctx的错误,调用方不应使用已收集的部分结果
func fanOut(ctx context.Context, workers int, jobs iter.Seq[portJob],
	probe func(context.Context, portJob) Outcome, collect func(record)) error {
	if workers < 1 {
		workers = 1
	}

	jobChan := make(chan portJob)
	resultChan := make(chan record, workers)
	doneChan := make(chan struct{})

	go func() { //收集结果
		defer close(doneChan)
		for r := range resultChan {
			collect(r)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { //生产者
		defer close(jobChan)
		for job := range jobs {
			select {
			case jobChan <- job:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	for i := 0; i < workers; i++ { //消费者数量固定,同时打开的套接字不会超过workers
		g.Go(func() error {
			for job := range jobChan {
				if err := gctx.Err(); err != nil {
					return err
				}
				resultChan <- record{ip: job.ip, port: job.port, outcome: probe(gctx, job)}
			}
			return nil
		})
	}

	err := g.Wait()
	close(resultChan)
	<-doneChan

	if err != nil {
		return err
	}
	return ctx.Err()
}
